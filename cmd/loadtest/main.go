package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/codewandler/mbus-go/core/actor"
	"github.com/codewandler/mbus-go/core/app"
	"github.com/codewandler/mbus-go/core/msg"
)

// === Config ===

var (
	logLevel = slog.LevelWarn
	N        = getEnvInt("N", 200_000)
	workers  = getEnvInt("WORKERS", 4)
	senders  = getEnvInt("SENDERS", 8)
	window   = getEnvInt("WINDOW", 1)
	verbose  = getEnvBool("VERBOSE", false)
)

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	return v == "1" || strings.ToLower(v) == "true"
}

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, fmt.Sprintf("%d", fallback)))
	if err != nil {
		return fallback
	}
	return v
}

// === Domain ===

type (
	Job struct {
		msg.RequestMsg[int]
		Seq int
	}

	Start struct {
		msg.BroadcastMsg
	}
)

// sender keeps window jobs in flight until it has sent total jobs.
type sender struct {
	total     int
	sent      int
	completed int
	done      *atomic.Int64
}

func (s *sender) handlers() []actor.HandlerRegistration {
	return []actor.HandlerRegistration{
		actor.HandleBroadcast(func(hc actor.HandlerCtx, _ Start) error {
			if s.total == 0 {
				hc.Terminate()
				return nil
			}
			for range window {
				if err := s.next(hc); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

func (s *sender) next(hc actor.HandlerCtx) error {
	if s.sent >= s.total {
		return nil
	}
	s.sent++
	job := &Job{Seq: s.sent}

	ok, err := actor.SendRequest(hc, job, func(hc actor.HandlerCtx, res int) error {
		if res != job.Seq*2 {
			return fmt.Errorf("job %d: unexpected result %d", job.Seq, res)
		}
		s.completed++
		s.done.Add(1)
		if s.completed == s.total {
			hc.Terminate()
			return nil
		}
		return s.next(hc)
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no worker for job %d", job.Seq)
	}
	return nil
}

func worker(handled *atomic.Int64) actor.HandlerRegistration {
	return actor.RespondRequest(func(hc actor.HandlerCtx, j *Job) (int, error) {
		handled.Add(1)
		return j.Seq * 2, nil
	})
}

func main() {
	level := logLevel
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	fmt.Printf("Requests: %d\n", N)
	fmt.Printf(" Workers: %d\n", workers)
	fmt.Printf(" Senders: %d\n", senders)
	fmt.Printf("  Window: %d\n", window)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	a := app.New(app.Config{Context: ctx, Log: log})

	handled := make([]*atomic.Int64, workers)
	workerSvcs := make([]*actor.Service, workers)
	for i := range workers {
		handled[i] = new(atomic.Int64)
		workerSvcs[i] = a.Spawn(fmt.Sprintf("worker-%d", i+1), worker(handled[i]))
	}

	var done atomic.Int64
	for i := range senders {
		total := N / senders
		if i < N%senders {
			total++
		}
		s := &sender{total: total, done: &done}
		a.Spawn(fmt.Sprintf("sender-%d", i+1), s.handlers()...)
	}

	checkErr(a.Run())
	checkErr(a.WaitReady(ctx))

	// === START ===

	log.Info("starting")
	startAt := time.Now()
	checkErr(a.Bus().SendBroadcast(Start{}))

	senderDone := make(chan struct{})
	go func() {
		defer close(senderDone)
		for done.Load() < int64(N) && ctx.Err() == nil {
			time.Sleep(time.Millisecond)
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var last int64
	lastTime := startAt
loop:
	for {
		select {
		case <-senderDone:
			break loop
		case n := <-ticker.C:
			cur := done.Load()
			took := n.Sub(lastTime)
			mu := getMemUsage()
			fmt.Printf(" | %7d requests | %6d ms | %8d requests/s | (%d / %d) MiB mem (sys) |\n",
				cur-last, took.Milliseconds(), int(float64(cur-last)/took.Seconds()), mu.Alloc/1024/1024, mu.Sys/1024/1024)
			last, lastTime = cur, n
		}
	}
	took := time.Since(startAt)

	for _, svc := range workerSvcs {
		svc.Terminate()
	}
	checkErr(a.Wait())
	checkErr(ctx.Err())

	// === stats ===
	println("==========================================")

	runtime.GC()
	fmt.Printf("  total runtime: %.3f seconds\n", took.Seconds())
	fmt.Printf("    completions: %d\n", done.Load())
	fmt.Printf("avg. requests/s: %d\n", int(float64(done.Load())/took.Seconds()))
	for i, h := range handled {
		fmt.Printf("       worker-%d: %d\n", i+1, h.Load())
	}
	fmt.Printf("        pending: %d\n", a.Bus().PendingRequests())
}

// === stats helpers ===

type MemUsage struct {
	Alloc      uint64 // bytes allocated and not yet freed (heap)
	TotalAlloc uint64 // cumulative bytes allocated
	Sys        uint64 // total bytes obtained from OS
	NumGC      uint32 // gc cycles
}

func getMemUsage() MemUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemUsage{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}

// === Helpers ===

func checkErr(err error) {
	if err != nil {
		panic(err)
	}
}
