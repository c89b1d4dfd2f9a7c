// focusctl drives a running focusd over its control API.
//
//	focusctl state            print the focus snapshot
//	focusctl history          print recent transitions
//	focusctl touch X Y        tap the preview at view pixel X,Y
//	focusctl half             half-press the shutter
//	focusctl release          release the shutter
//	focusctl snap             take a picture
//	focusctl cancel           cancel autofocus
//	focusctl camera [k=v...]  show or change camera settings
//	focusctl reconnect        restart the hardware session
//	focusctl watch            stream indicator messages
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-focus/internal/config"
	"github.com/teslashibe/go-focus/internal/httpc"
	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/protocol"
)

func main() {
	base := flag.String("url", config.ServerURL(""), "focusd base URL (env FOCUS_URL)")
	timeout := flag.Duration("timeout", httpc.DefaultTimeout, "Request timeout")
	verbose := flag.Bool("v", false, "Log requests to stderr")
	flag.Usage = usage
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log.Setup(log.Options{Level: level, Output: os.Stderr})

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, strings.TrimRight(*base, "/"), *timeout, args); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: focusctl [-url URL] [-v] <state|history|touch X Y|half|release|snap|cancel|camera [k=v...]|reconnect|watch>")
	flag.PrintDefaults()
}

func run(ctx context.Context, base string, timeout time.Duration, args []string) error {
	if args[0] == "watch" {
		return watch(ctx, base)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	log.Debug("focusctl request", "command", args[0], "url", base, "timeout", timeout)

	var out any
	var err error
	switch args[0] {
	case "state":
		err = httpc.DoJSON(ctx, http.MethodGet, base+"/api/state", nil, &out)
	case "history":
		err = httpc.DoJSON(ctx, http.MethodGet, base+"/api/history", nil, &out)
	case "touch":
		if len(args) != 3 {
			return fmt.Errorf("touch needs X and Y")
		}
		x, errX := strconv.Atoi(args[1])
		y, errY := strconv.Atoi(args[2])
		if errX != nil || errY != nil {
			return fmt.Errorf("touch coordinates must be integers")
		}
		err = httpc.DoJSON(ctx, http.MethodPost, base+"/api/touch", map[string]int{"x": x, "y": y}, &out)
	case "half":
		err = httpc.DoJSON(ctx, http.MethodPost, base+"/api/shutter/down", nil, &out)
	case "release":
		err = httpc.DoJSON(ctx, http.MethodPost, base+"/api/shutter/up", nil, &out)
	case "snap":
		err = httpc.DoJSON(ctx, http.MethodPost, base+"/api/capture", nil, &out)
	case "cancel":
		err = httpc.DoJSON(ctx, http.MethodPost, base+"/api/focus/cancel", nil, &out)
	case "reconnect":
		err = httpc.DoJSON(ctx, http.MethodPost, base+"/api/session/reconnect", nil, &out)
	case "camera":
		if len(args) == 1 {
			err = httpc.DoJSON(ctx, http.MethodGet, base+"/api/camera", nil, &out)
			break
		}
		updates, perr := parseSettings(args[1:])
		if perr != nil {
			return perr
		}
		err = httpc.DoJSON(ctx, http.MethodPatch, base+"/api/camera", updates, &out)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	if err != nil {
		return err
	}
	return printJSON(out)
}

// parseSettings turns k=v pairs into a settings patch. Numbers and
// booleans are sent typed; everything else as a string.
func parseSettings(pairs []string) (map[string]any, error) {
	updates := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("bad setting %q, want key=value", p)
		}
		if n, err := strconv.Atoi(v); err == nil {
			updates[k] = n
		} else if b, err := strconv.ParseBool(v); err == nil {
			updates[k] = b
		} else {
			updates[k] = v
		}
	}
	return updates, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// watch prints indicator messages until interrupted.
func watch(ctx context.Context, base string) error {
	u, err := url.Parse(base)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws/indicator"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			log.Warn("skipping malformed message", "error", err)
			continue
		}
		fmt.Printf("%s %-16s %s\n", time.UnixMilli(msg.Timestamp).Format("15:04:05.000"), msg.Type, msg.Data)
	}
}
