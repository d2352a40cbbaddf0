// liveness-watch follows a liveness server's websocket streams and prints
// every session update. With -create it also starts a session.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-liveness/internal/config"
	"github.com/teslashibe/go-liveness/internal/httpc"
	"github.com/teslashibe/go-liveness/internal/log"
	"github.com/teslashibe/go-liveness/pkg/protocol"
)

func main() {
	env, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	server := flag.String("server", env.ServerURL, "Server websocket base URL (overrides LIVENESS_SERVER_URL)")
	create := flag.Bool("create", false, "Start a capture session after connecting")
	facing := flag.String("facing", "front", "Camera facing for -create")
	saveDir := flag.String("save", "", "Directory to save captured thumbnails and photos")
	once := flag.Bool("once", false, "Exit after the first session ends")
	level := flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	flag.Parse()

	log.Init(*level)

	base, err := url.Parse(*server)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Invalid server URL: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	updates, err := dial(ctx, base, "/ws/liveness")
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	defer updates.Close()

	notes, err := dial(ctx, base, "/ws/notifications")
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	defer notes.Close()

	fmt.Printf("👀 Watching %s\n", base.Host)

	api := httpc.New(httpURL(base), nil)
	if *create {
		info, err := api.CreateSession(ctx, *facing)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Create session: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("🎬 Session %s: %s\n", info.ID, info.Snapshot.Challenge.Instruction)
	}

	ended := make(chan protocol.EndedData, 4)
	go pingLoop(ctx, updates)
	go readLoop(notes, func(m *protocol.Message) { printMessage(m, "", nil) })
	go readLoop(updates, func(m *protocol.Message) { printMessage(m, *saveDir, ended) })

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-ended:
			if *saveDir != "" && e.Outcome == "CAPTURED" {
				savePhoto(ctx, api, *saveDir, e.Session)
			}
			if *once {
				return
			}
		}
	}
}

func dial(ctx context.Context, base *url.URL, path string) (*websocket.Conn, error) {
	u := *base
	u.Path = strings.TrimRight(u.Path, "/") + path
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}
	return conn, nil
}

func httpURL(ws *url.URL) string {
	u := *ws
	switch u.Scheme {
	case "wss":
		u.Scheme = "https"
	default:
		u.Scheme = "http"
	}
	u.Path = ""
	return u.String()
}

func readLoop(conn *websocket.Conn, handle func(*protocol.Message)) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Debug("websocket closed", "error", err)
			return
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			log.Warn("bad message", "error", err)
			continue
		}
		handle(msg)
	}
}

func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for i := 1; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ping, err := protocol.NewPingMessage(fmt.Sprintf("watch-%d", i))
			if err != nil {
				continue
			}
			raw, _ := ping.Bytes()
			if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		}
	}
}

func printMessage(m *protocol.Message, saveDir string, ended chan<- protocol.EndedData) {
	switch m.Type {
	case protocol.TypeUpdate:
		u, err := m.GetUpdateData()
		if err != nil {
			return
		}
		fmt.Printf("%s %s %6.1fs %-13s %s\n", short(u.Session), indicatorIcon(u.Indicator),
			float64(u.ElapsedMs)/1000, u.State, u.Message)

	case protocol.TypeNotification:
		n, err := m.GetNotificationData()
		if err != nil {
			return
		}
		fmt.Printf("%s 🔔 [%s] %s\n", short(n.Session), n.Severity, n.Message)

	case protocol.TypeCaptured:
		c, err := m.GetCapturedData()
		if err != nil {
			return
		}
		fmt.Printf("%s 📸 thumbnail %dx%d\n", short(c.Session), c.Width, c.Height)
		if saveDir != "" {
			data, err := c.DecodeImage()
			if err == nil {
				path := filepath.Join(saveDir, c.Session+"-thumb.jpg")
				if err := os.WriteFile(path, data, 0o644); err != nil {
					log.Warn("save thumbnail failed", "error", err)
				}
			}
		}

	case protocol.TypeEnded:
		e, err := m.GetEndedData()
		if err != nil {
			return
		}
		line := fmt.Sprintf("%s 🏁 %s", short(e.Session), e.Outcome)
		if e.Error != "" {
			line += ": " + e.Error
		}
		fmt.Println(line)
		if ended != nil {
			ended <- *e
		}

	case protocol.TypePong:
		p, err := m.GetPongData()
		if err == nil {
			log.Debug("pong", "id", p.ID, "latency_ms", p.LatencyMs)
		}
	}
}

func savePhoto(ctx context.Context, api *httpc.Client, dir, id string) {
	data, err := api.Photo(ctx, id)
	if err != nil {
		log.Warn("download photo failed", "session", id, "error", err)
		return
	}
	path := filepath.Join(dir, id+".jpg")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warn("save photo failed", "error", err)
		return
	}
	fmt.Printf("%s 💾 %s\n", short(id), path)
}

func indicatorIcon(indicator string) string {
	switch indicator {
	case "POSITIVE":
		return "🟢"
	case "CAUTION":
		return "🟡"
	case "ACTIVE":
		return "🟣"
	default:
		return "⚪"
	}
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "--------"
	}
	return id
}
