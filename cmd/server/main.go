package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lsmtools/foresight/predictor"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development
		return true
	},
}

// Client message types
type ClientMessage struct {
	Type      string                     `json:"type"`
	Config    *predictor.Config          `json:"config,omitempty"`
	Generator *predictor.GeneratorConfig `json:"generator,omitempty"`
	// Feedback carries file ids for confirm / report_incorrect.
	Feedback []uint64 `json:"feedback,omitempty"`
}

// Server message types
type ServerMessage struct {
	Type      string                 `json:"type"`
	Running   *bool                  `json:"running,omitempty"`
	Config    *predictor.Config      `json:"config,omitempty"`
	Stats     *predictor.Stats       `json:"stats,omitempty"`
	Snapshot  *predictor.TreeSnapshot `json:"snapshot,omitempty"`
	Predicted []uint64               `json:"predicted,omitempty"`
	Ledger    map[uint64]int         `json:"ledger,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// predictState manages one client's predictor, generator and pacing.
type predictState struct {
	mu      sync.Mutex
	pred    *predictor.Predictor
	gen     *predictor.SnapshotGenerator
	cfg     predictor.Config
	genCfg  predictor.GeneratorConfig
	running bool
	stopCh  chan struct{}
}

func newPredictState(cfg predictor.Config, genCfg predictor.GeneratorConfig) (*predictState, error) {
	pred, err := predictor.New(cfg, nil)
	if err != nil {
		return nil, err
	}
	gen, err := predictor.NewSnapshotGenerator(genCfg)
	if err != nil {
		return nil, err
	}
	return &predictState{
		pred:   pred,
		gen:    gen,
		cfg:    cfg,
		genCfg: genCfg,
		stopCh: make(chan struct{}),
	}, nil
}

func (s *predictState) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
}

func (s *predictState) pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// reset rebuilds the predictor and generator from the current configs,
// clearing the ledger and all statistics.
func (s *predictState) reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pred, err := predictor.New(s.cfg, nil)
	if err != nil {
		return err
	}
	gen, err := predictor.NewSnapshotGenerator(s.genCfg)
	if err != nil {
		return err
	}
	s.pred = pred
	s.gen = gen
	s.running = false
	return nil
}

// updateConfig swaps in a new predictor configuration. The ledger does
// not survive a config change.
func (s *predictState) updateConfig(cfg predictor.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pred, err := predictor.New(cfg, nil)
	if err != nil {
		return err
	}
	s.pred = pred
	s.cfg = cfg
	return nil
}

func (s *predictState) updateGenerator(cfg predictor.GeneratorConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen, err := predictor.NewSnapshotGenerator(cfg)
	if err != nil {
		return err
	}
	s.gen = gen
	s.genCfg = cfg
	return nil
}

func (s *predictState) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *predictState) getConfig() predictor.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// round generates one snapshot, runs a prediction over it and returns
// everything the client needs to render the round.
func (s *predictState) round(ctx context.Context) (*predictor.TreeSnapshot, []uint64, predictor.Stats, map[uint64]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.gen.Generate()
	ids := s.pred.Predict(ctx, snap)
	return snap, ids, s.pred.Stats(), s.pred.LedgerSnapshot()
}

func (s *predictState) confirm(ids []uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pred.ConfirmCompacted(ids)
}

func (s *predictState) reportIncorrect(ids []uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pred.ReportIncorrect(ids)
}

func (s *predictState) stop() {
	close(s.stopCh)
}

// roundLoop paces prediction rounds and streams each one to the client.
func roundLoop(conn *safeConn, state *predictState) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	ctx := context.Background()
	for {
		select {
		case <-state.stopCh:
			log.Println("Round loop stopping")
			return

		case <-ticker.C:
			if !state.isRunning() {
				continue
			}
			snap, ids, stats, ledger := state.round(ctx)
			updatePrometheusMetrics(snap, ids, stats)

			msg := ServerMessage{
				Type:      "round",
				Snapshot:  snap,
				Predicted: ids,
				Stats:     &stats,
				Ledger:    ledger,
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("Error sending round: %v", err)
				return
			}
		}
	}
}

// safeConn wraps a WebSocket connection with a mutex to prevent concurrent writes
type safeConn struct {
	*websocket.Conn
	writeMu sync.Mutex
}

func (sc *safeConn) WriteJSON(v interface{}) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	return sc.Conn.WriteJSON(v)
}

func sendStatus(conn *safeConn, state *predictState) {
	running := state.isRunning()
	cfg := state.getConfig()
	conn.WriteJSON(ServerMessage{
		Type:    "status",
		Running: &running,
		Config:  &cfg,
	})
}

func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading connection: %v", err)
		return
	}
	defer conn.Close()

	safeConn := &safeConn{Conn: conn}
	log.Println("Client connected")

	state, err := newPredictState(predictor.DefaultConfig(), predictor.DefaultGeneratorConfig())
	if err != nil {
		log.Printf("Error creating predictor: %v", err)
		return
	}

	sendStatus(safeConn, state)
	go roundLoop(safeConn, state)

	for {
		var msg ClientMessage
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Error reading message: %v", err)
			}
			break
		}

		log.Printf("Received command: %s", msg.Type)

		switch msg.Type {
		case "start":
			state.start()
			sendStatus(safeConn, state)

		case "pause":
			state.pause()
			sendStatus(safeConn, state)

		case "reset":
			if err := state.reset(); err != nil {
				safeConn.WriteJSON(ServerMessage{Type: "error", Error: err.Error()})
				break
			}
			sendStatus(safeConn, state)

		case "config_update":
			if msg.Config != nil {
				if err := state.updateConfig(*msg.Config); err != nil {
					log.Printf("Error updating config: %v", err)
					safeConn.WriteJSON(ServerMessage{Type: "error", Error: err.Error()})
					break
				}
			}
			if msg.Generator != nil {
				if err := state.updateGenerator(*msg.Generator); err != nil {
					log.Printf("Error updating generator: %v", err)
					safeConn.WriteJSON(ServerMessage{Type: "error", Error: err.Error()})
					break
				}
			}
			sendStatus(safeConn, state)

		case "confirm":
			state.confirm(msg.Feedback)

		case "report_incorrect":
			state.reportIncorrect(msg.Feedback)
		}
	}

	state.stop()
	log.Println("Client disconnected")
}

func quitHandler(w http.ResponseWriter, r *http.Request) {
	log.Println("Shutdown requested via /quitquitquit")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Server shutting down...")

	go func() {
		time.Sleep(100 * time.Millisecond)
		log.Println("Server stopped")
		os.Exit(0)
	}()
}

func main() {
	initPrometheusMetrics()

	http.HandleFunc("/ws", handleWebSocket)
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/quitquitquit", quitHandler)

	addr := ":8080"
	log.Printf("Server starting on http://localhost%s", addr)
	log.Printf("WebSocket endpoint: ws://localhost%s/ws", addr)
	log.Printf("Prometheus endpoint: http://localhost%s/metrics", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
