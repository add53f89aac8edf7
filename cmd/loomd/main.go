// Command loomd is a minimal demo embedder for pkg/buffer: a websocket
// relay that lets several processes share one collaboratively edited
// buffer, optionally gated by a goja policy script and optionally
// logging a unified diff after every Edited event, that is after each
// applied operation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreseekdev/loom/cmd/loomd/script"
	"github.com/coreseekdev/loom/pkg/buffer"
	"github.com/coreseekdev/loom/pkg/bufdiff"
	"github.com/coreseekdev/loom/pkg/clock"
)

// scriptHook is the policy surface relay.go consults before accepting an
// operation. script.Host satisfies it; nil means "accept everything".
type scriptHook interface {
	Allow(op buffer.Operation) bool
}

func main() {
	addr := flag.String("listen", ":8088", "address to listen on")
	replica := flag.Uint("replica", 1, "this server's replica id")
	seed := flag.String("seed", "", "initial document text")
	scriptPath := flag.String("script", "", "path to a goja policy script defining allow(op)")
	showDiff := flag.Bool("diff", false, "log a unified diff after every applied operation")
	flag.Parse()

	var hook scriptHook
	if *scriptPath != "" {
		h, err := script.Load(*scriptPath)
		if err != nil {
			log.Fatalf("loomd: %v", err)
		}
		hook = h
	}

	buf := buffer.New(clock.ReplicaID(*replica), *seed)
	r := newRelay(buf, hook)

	if *showDiff {
		renderer := bufdiff.New()
		last := buf.Text()
		buf.Subscribe(func(e buffer.Event) {
			if _, ok := e.(buffer.Edited); !ok {
				return
			}
			current := buf.Text()
			if diff := renderer.UnifiedSnapshots(last, current); diff != "" {
				fmt.Fprint(os.Stdout, diff)
			}
			last = current
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", r.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "ok")
	})

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("loomd: shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("loomd: replica %d listening on %s (ws://%s/ws)", *replica, *addr, *addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("loomd: %v", err)
	}
}
