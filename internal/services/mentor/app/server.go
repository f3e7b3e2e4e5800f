// Package server hosts the mentor HTTP process: a JSON chat endpoint in
// front of the game engine plus a health probe. The transport stays
// thin; every game rule lives behind the engine boundary.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/dhleesep9/gayoon/internal/dialogue"
	"github.com/dhleesep9/gayoon/internal/dialogue/gemini"
	"github.com/dhleesep9/gayoon/internal/dialogue/memory"
	gerrors "github.com/dhleesep9/gayoon/internal/errors"
	"github.com/dhleesep9/gayoon/internal/game/catalog"
	"github.com/dhleesep9/gayoon/internal/game/engine"
	"github.com/dhleesep9/gayoon/internal/game/handler"
	"github.com/dhleesep9/gayoon/internal/game/state"
	"github.com/dhleesep9/gayoon/internal/game/trigger"
	"github.com/dhleesep9/gayoon/internal/platform/timeouts"
	"github.com/dhleesep9/gayoon/internal/session/domain"
	sqlitestore "github.com/dhleesep9/gayoon/internal/session/storage/sqlite"
	"github.com/dhleesep9/gayoon/internal/telemetry"
)

const maxChatBodyBytes = 16 * 1024

// Config defines the inputs for the mentor transport boundary.
type Config struct {
	HTTPAddr     string
	DBPath       string
	GeminiAPIKey string
	GeminiModel  string

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// TurnProcessor is the engine surface the transport needs.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, userID, message string) (engine.Response, error)
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler builds the HTTP routing for the mentor service.
func NewHandler(proc TurnProcessor) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "POST required")
			return
		}
		var req chatRequest
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes))
		if err := decoder.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		resp, err := proc.ProcessTurn(r.Context(), req.UserID, req.Message)
		if err != nil {
			var verr *gerrors.ValidationError
			switch {
			case errors.Is(err, domain.ErrEmptyUserID):
				writeError(w, http.StatusBadRequest, "user_id is required")
			case errors.As(err, &verr):
				writeError(w, http.StatusBadRequest, verr.Narration)
			default:
				log.Printf("process turn for %q: %v", req.UserID, err)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
	return mux
}

// Run wires the storage, catalogs, dialogue collaborators, and engine,
// then serves HTTP until the context is cancelled.
func Run(ctx context.Context, cfg Config) error {
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = timeouts.Shutdown
	}

	store, err := sqlitestore.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	eng, cleanup, err := buildEngine(ctx, cfg, store)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewHandler(eng),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("mentor http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return <-errCh
}

// buildEngine assembles the full pipeline. Without a Gemini key the
// engine runs with canned dialogue and neutral sentiment, which keeps
// local development possible offline.
func buildEngine(ctx context.Context, cfg Config, store *sqlitestore.Store) (*engine.Engine, func(), error) {
	defs, err := catalog.LoadStates()
	if err != nil {
		return nil, nil, err
	}
	triggers := trigger.NewRegistry()
	if err := trigger.RegisterBuiltins(triggers); err != nil {
		return nil, nil, err
	}
	machine, err := state.NewMachine(defs, triggers)
	if err != nil {
		return nil, nil, err
	}
	commands, err := catalog.LoadDebugCommands()
	if err != nil {
		return nil, nil, err
	}

	var (
		generator dialogue.Generator
		sentiment dialogue.SentimentScorer
		judge     dialogue.Judge
		retriever dialogue.Retriever
		recorder  engine.MemoryRecorder
		cleanup   func()
	)
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, fmt.Errorf("dial gemini: %w", err)
		}
		cleanup = func() {
			if err := client.Close(); err != nil {
				log.Printf("close gemini client: %v", err)
			}
		}
		generator = client
		sentiment = client
		judge = client
		mem := memory.NewRetriever(store, client, time.Now, nil)
		retriever = mem
		recorder = mem
	} else {
		log.Print("no gemini api key configured; dialogue collaborators disabled")
	}

	eng, err := engine.NewEngine(engine.Config{
		Store:     store,
		Machine:   machine,
		Handlers:  handler.NewRegistry(handler.Deps{Judge: judge}),
		Debug:     handler.NewDebugExecutor(commands),
		Generator: generator,
		Sentiment: sentiment,
		Retriever: retriever,
		Recorder:  recorder,
		Telemetry: telemetry.NewEmitter(store),
	})
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return nil, nil, err
	}
	return eng, cleanup, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
