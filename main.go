package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"wireframe-canvas/editor"
	"wireframe-canvas/events"
	"wireframe-canvas/handlers/api/canvases"
	"wireframe-canvas/handlers/api/documents"
	"wireframe-canvas/handlers/api/scenes"
	"wireframe-canvas/handlers/api/snapshots"
	"wireframe-canvas/handlers/websocket"
	"wireframe-canvas/shell"
	"wireframe-canvas/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type roomInfo struct {
	ID      string `json:"id"`
	Users   int    `json:"users"`
	Editing bool   `json:"editing"`
}

func setupRouter(store stores.Store, registry *editor.Registry, hub *websocket.Hub) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	corsOptions := cors.Options{
		AllowedOrigins: []string{"tauri://localhost"},
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if origin == "" {
				return false
			}

			parsed, err := url.Parse(origin)
			if err != nil {
				return false
			}

			switch parsed.Scheme {
			case "http", "https":
				switch parsed.Hostname() {
				case "localhost", "127.0.0.1", "[::1]":
					return true
				}
			case "tauri":
				return parsed.Hostname() == "localhost"
			}

			return false
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	r.Use(cors.Handler(corsOptions))

	isOpen := func(id string) bool {
		_, err := registry.Get(id)
		return err == nil
	}

	r.Route("/api/v2", func(r chi.Router) {
		r.Post("/post/", documents.HandleCreate(store))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", documents.HandleGet(store))
		})
	})

	snapshotStore, hasSnapshots := stores.Snapshots(store)

	r.Route("/api/scenes", func(r chi.Router) {
		r.Get("/", scenes.HandleList(store))
		r.Route("/{sceneId}", func(r chi.Router) {
			r.Get("/", scenes.HandleGet(store))
			r.Put("/", scenes.HandlePut(store, isOpen))
			r.Delete("/", scenes.HandleDelete(store, isOpen))

			if hasSnapshots {
				r.Route("/snapshots", func(r chi.Router) {
					r.Post("/", snapshots.HandleCreateSnapshot(snapshotStore, store))
					r.Get("/", snapshots.HandleListSnapshots(snapshotStore))
					r.Get("/count", snapshots.HandleGetSnapshotCount(snapshotStore))
					r.Get("/settings", snapshots.HandleGetSettings(snapshotStore))
					r.Put("/settings", snapshots.HandleUpdateSettings(snapshotStore))
				})
			}
		})
	})

	if hasSnapshots {
		r.Route("/api/snapshots/{snapshotId}", func(r chi.Router) {
			r.Get("/", snapshots.HandleGetSnapshot(snapshotStore))
			r.Put("/", snapshots.HandleUpdateSnapshot(snapshotStore))
			r.Delete("/", snapshots.HandleDeleteSnapshot(snapshotStore))
			r.Post("/restore", snapshots.HandleRestoreSnapshot(snapshotStore, store, isOpen))
		})

		logrus.Info("Snapshot API routes registered")
	} else {
		logrus.Warn("Snapshot API not available - requires SQLite storage")
	}

	r.Mount("/api/canvases", canvases.Routes(registry))

	r.Get("/api/rooms", func(w http.ResponseWriter, r *http.Request) {
		rooms := make(map[string]*roomInfo)
		for id, users := range hub.ActiveRooms() {
			rooms[id] = &roomInfo{ID: id, Users: users}
		}
		for _, info := range registry.List() {
			room, ok := rooms[info.ID]
			if !ok {
				room = &roomInfo{ID: info.ID}
				rooms[info.ID] = room
			}
			room.Editing = true
		}

		list := make([]roomInfo, 0, len(rooms))
		for _, room := range rooms {
			list = append(list, *room)
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Users == list[j].Users {
				return list[i].ID < list[j].ID
			}
			return list[i].Users > list[j].Users
		})
		render.JSON(w, r, list)
	})

	r.Handle("/socket.io/", hub.Server().ServeHandler(nil))
	return r
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "value": v}).Warn("Invalid boolean, using default")
		return fallback
	}
	return b
}

func waitForShutdown() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-signals
}

func main() {
	logLevel := flag.String("loglevel", "info", "Set the logging level: debug, info, warn, error, fatal, panic")
	listenAddr := flag.String("listen", ":3002", "Set the server listen address")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("Failed to load .env file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := stores.GetStore(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize storage")
	}

	hub := websocket.NewHub()
	registry := editor.NewRegistry(ctx, editor.Config{
		Scenes:   store,
		Settings: store.Settings(),
		Autosave: envBool("CANVAS_AUTOSAVE", true),
		OnEvent: func(canvasID string, e events.Event) {
			hub.RelayEvent(canvasID, e)
		},
		OnNotice: func(canvasID string, n shell.Notice) {
			hub.RelayNotice(canvasID, n)
		},
	})

	srv := &http.Server{
		Addr:    *listenAddr,
		Handler: setupRouter(store, registry, hub),
	}

	logrus.WithField("addr", *listenAddr).Info("starting server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown()
	logrus.Info("Shutting down...")

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP server shutdown")
	}
	registry.CloseAll(shutdownCtx)
	hub.Close()
	cancel()
	if closer, ok := store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close storage")
		}
	}
}
