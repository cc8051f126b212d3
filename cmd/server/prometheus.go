package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lsmtools/foresight/predictor"
)

var (
	// Prometheus metrics (gauges)
	promMetrics = struct {
		rounds             prometheus.Gauge
		predictedFiles     prometheus.Gauge
		lastRoundFiles     prometheus.Gauge
		supplementalRounds prometheus.Gauge
		ledgerEntries      prometheus.Gauge
		ledgerEvictions    prometheus.Gauge
		l0Files            prometheus.Gauge
		l0Score            prometheus.Gauge
	}{
		rounds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "predictor_rounds_total",
			Help: "Prediction rounds completed",
		}),
		predictedFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "predictor_predicted_files_total",
			Help: "File ids predicted, summed over rounds",
		}),
		lastRoundFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "predictor_last_round_files",
			Help: "Files in the most recent round's result",
		}),
		supplementalRounds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "predictor_supplemental_rounds_total",
			Help: "Extra expansion batches taken for still-hot levels",
		}),
		ledgerEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "predictor_ledger_entries",
			Help: "Live prediction ledger entries",
		}),
		ledgerEvictions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "predictor_ledger_evictions_total",
			Help: "Ledger entries dropped as noise",
		}),
		l0Files: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "predictor_snapshot_l0_files",
			Help: "L0 file count in the most recent snapshot",
		}),
		l0Score: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "predictor_snapshot_l0_score",
			Help: "L0 compaction score in the most recent snapshot",
		}),
	}
)

func initPrometheusMetrics() {
	prometheus.MustRegister(
		promMetrics.rounds,
		promMetrics.predictedFiles,
		promMetrics.lastRoundFiles,
		promMetrics.supplementalRounds,
		promMetrics.ledgerEntries,
		promMetrics.ledgerEvictions,
		promMetrics.l0Files,
		promMetrics.l0Score,
	)
}

func updatePrometheusMetrics(snap *predictor.TreeSnapshot, predicted []uint64, stats predictor.Stats) {
	promMetrics.rounds.Set(float64(stats.Rounds))
	promMetrics.predictedFiles.Set(float64(stats.PredictedFiles))
	promMetrics.lastRoundFiles.Set(float64(len(predicted)))
	promMetrics.supplementalRounds.Set(float64(stats.SupplementalRounds))
	promMetrics.ledgerEntries.Set(float64(stats.LedgerEntries))
	promMetrics.ledgerEvictions.Set(float64(stats.LedgerEvictions))

	promMetrics.l0Files.Set(float64(len(snap.LevelFiles(0))))
	promMetrics.l0Score.Set(snap.CompactionScore(0))
}
