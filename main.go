// Program laddoohunt probes randomly generated short-link codes against the
// Google Pay reward redirector, classifies the reward pages it finds, and
// persists both progress (checkpoint) and confirmed matches (log, archive,
// Telegram). It wires the generator, worker pool, sinks, and checkpoint
// timers, and manages graceful shutdown.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"laddoohunt/archive"
	"laddoohunt/candidate"
	"laddoohunt/checkpoint"
	"laddoohunt/classify"
	"laddoohunt/config"
	"laddoohunt/dedup"
	"laddoohunt/notify"
	"laddoohunt/probe"
	"laddoohunt/sink"
	"laddoohunt/stats"
	"laddoohunt/worker"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

const (
	defaultConfigPath = "config.yaml"
	envConfigPath     = "LADDOO_CONFIG"
)

const banner = `
 ___      _______  ______   ______   _______  _______
|   |    |   _   ||      | |      | |       ||       |
|   |    |  |_|  ||  _    ||  _    ||   _   ||   _   |
|   |    |       || | |   || | |   ||  | |  ||  | |  |
|   |___ |       || |_|   || |_|   ||  |_|  ||  |_|  |
|       ||   _   ||       ||       ||       ||       |
|_______||__| |__||______| |______| |_______||_______|
 __   __  __   __  __    _  _______
|  | |  ||  | |  ||  |  | ||       |
|  |_|  ||  | |  ||   |_| ||_     _|
|       ||  |_|  ||       |  |   |
|       ||       ||  _    |  |   |
|   _   ||       || | |   |  |   |
|__| |__||_______||_|  |__|  |___|`

// codeSource is the generator surface the generation loop consumes.
// Satisfied by candidate.Generator.
type codeSource interface {
	Next() string
}

// hunter owns the run-wide state shared by the generation loop and the
// checkpoint timers: the set of codes ever handed to the pool and the
// processed counter carried across restarts.
type hunter struct {
	cfg      *config.Config
	gen      codeSource
	pool     *worker.Pool
	store    *checkpoint.Store
	counters *stats.Tracker
	initial  uint64

	seenMu sync.Mutex
	seen   map[string]struct{}

	stop chan struct{}
	wg   sync.WaitGroup
}

func main() {
	printBanner()

	cfg, configSource, err := loadHuntConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)
	interactive := isStdinTTY()
	if interactive && strings.TrimSpace(cfg.SystemName) == "" {
		askSystemName(reader, cfg)
	}

	fanout, logErr := setupLogging(cfg.LogFile(), os.Stdout)
	log.SetFlags(0)
	log.SetOutput(fanout)
	defer fanout.Close()
	if logErr != nil {
		log.Printf("Warning: file logging unavailable: %v", logErr)
	}

	if configSource != "" {
		log.Printf("Loaded configuration from %s", configSource)
	} else {
		log.Println("No config file found; using built-in defaults")
	}
	log.Println("Starting Laddoo hunting")
	cfg.Print()

	prober := selectProber(cfg, reader, interactive)
	classifier := classify.New(cfg.Hunt.Patterns, cfg.Hunt.Categories)

	store := checkpoint.NewStore(cfg.Checkpoint.File)
	seen, processed, err := store.Load()
	if err != nil {
		log.Printf("Warning: checkpoint load: %v", err)
		seen = make(map[string]struct{})
		processed = 0
	}
	if len(seen) > 0 {
		resume := true
		if interactive {
			resume = promptYesNo(reader, fmt.Sprintf("Found checkpoint with %d codes. Resume from it? (y/n): ", len(seen)))
		}
		if resume {
			log.Printf("Resuming from checkpoint with %s processed codes", humanize.Comma(int64(processed)))
		} else {
			seen = make(map[string]struct{})
			processed = 0
			log.Println("Starting fresh session")
		}
	}

	if interactive && promptYesNo(reader, "Test a specific code first? (y/n): ") {
		if code := promptLine(reader, "Enter code to test (e.g. 6Cf87y): "); code != "" {
			testSingleCode(prober, classifier, cfg.Hunt.BaseURL, code)
		}
		promptLine(reader, "Press Enter to start the hunt...")
	}

	counters := stats.NewTracker(processed)

	notifier := notify.NewTelegram(cfg.Telegram, cfg.SystemName, cfg.LogFile(), cfg.Checkpoint.File)
	if notifier.Enabled() {
		notifier.Start()
		log.Println("Telegram notifications enabled")
	}

	var archiver sink.Archiver
	var archiveWriter *archive.Writer
	if cfg.Archive.Enabled {
		archiveWriter, err = archive.NewWriter(cfg.Archive)
		if err != nil {
			log.Printf("Warning: match archive disabled: %v", err)
			archiveWriter = nil
		} else {
			archiveWriter.Start()
			archiver = archiveWriter
		}
	}

	matchTracker := dedup.NewTracker()
	writer := sink.NewWriter(
		cfg.Results.File,
		cfg.Results.BatchSize,
		time.Duration(cfg.Results.FlushIntervalSeconds)*time.Second,
		matchTracker,
		counters,
		notifier,
		archiver,
	)
	writer.Start()

	pool := worker.NewPool(cfg.Workers.Count, cfg.Queue.Capacity, cfg.Hunt.BaseURL, prober, classifier, counters, writer)
	pool.Start()

	h := &hunter{
		cfg:      cfg,
		gen:      candidate.NewGenerator(cfg.Hunt.CodeLength),
		pool:     pool,
		store:    store,
		counters: counters,
		initial:  processed,
		seen:     seen,
		stop:     make(chan struct{}),
	}

	h.wg.Add(4)
	go h.generationLoop()
	go h.checkpointLoop(time.Duration(cfg.Checkpoint.IntervalSeconds)*time.Second, "Periodic")
	go h.checkpointLoop(time.Duration(cfg.Checkpoint.AutoSaveSeconds)*time.Second, "Auto-save")
	go h.statsLoop(time.Duration(cfg.Stats.DisplayIntervalSeconds) * time.Second)

	log.Printf("Hunting with %d workers using the %s backend...", cfg.Workers.Count, prober.Name())
	log.Println("Press Ctrl+C to stop and save the checkpoint")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal: %v", sig)
	log.Println("Shutting down gracefully, saving checkpoint...")

	close(h.stop)
	h.wg.Wait()
	pool.Stop()

	if err := h.saveCheckpoint(); err != nil {
		log.Printf("Error saving checkpoint: %v", err)
	} else {
		log.Printf("Checkpoint saved: %s codes", humanize.Comma(int64(counters.Processed())))
	}

	writer.Stop()
	if archiveWriter != nil {
		archiveWriter.Stop()
	}
	notifier.Stop()

	h.logStats("Final")
}

// generationLoop feeds the pool with fresh codes, skipping anything already
// handed out this run or restored from the checkpoint. It backs off when the
// queue crosses the configured threshold so memory stays bounded.
func (h *hunter) generationLoop() {
	defer h.wg.Done()
	backoff := time.Duration(h.cfg.Queue.BackoffMS) * time.Millisecond
	for {
		select {
		case <-h.stop:
			return
		default:
		}
		if h.pool.QueueLen() >= h.cfg.Queue.BackoffThreshold {
			select {
			case <-h.stop:
				return
			case <-time.After(backoff):
			}
			continue
		}
		code := h.gen.Next()
		h.seenMu.Lock()
		if _, dup := h.seen[code]; dup {
			h.seenMu.Unlock()
			continue
		}
		h.seen[code] = struct{}{}
		h.seenMu.Unlock()
		h.pool.Enqueue(code)
	}
}

func (h *hunter) checkpointLoop(interval time.Duration, label string) {
	defer h.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			if err := h.saveCheckpoint(); err != nil {
				log.Printf("Error saving checkpoint (%s): %v", strings.ToLower(label), err)
				continue
			}
			log.Printf("%s checkpoint saved: %s codes processed", label, humanize.Comma(int64(h.counters.Processed())))
		}
	}
}

func (h *hunter) statsLoop(interval time.Duration) {
	defer h.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			h.logStats("Stats")
		}
	}
}

func (h *hunter) logStats(label string) {
	uptime := h.counters.Uptime()
	session := h.counters.Processed() - h.initial
	rate := 0.0
	if secs := uptime.Seconds(); secs > 0 {
		rate = float64(session) / secs
	}
	log.Printf("%s: %s checked | %s valid | %s matches | %s partial | %s errors | queue %d/%d | %.1f codes/s | up %s",
		label,
		humanize.Comma(int64(h.counters.Processed())),
		humanize.Comma(int64(h.counters.Valid())),
		humanize.Comma(int64(h.counters.Matches())),
		humanize.Comma(int64(h.counters.Partial())),
		humanize.Comma(int64(h.counters.ProbeErrors())),
		h.pool.QueueLen(), h.pool.QueueCap(),
		rate,
		uptime.Round(time.Second))
}

func (h *hunter) saveCheckpoint() error {
	h.seenMu.Lock()
	snapshot := make(map[string]struct{}, len(h.seen))
	for code := range h.seen {
		snapshot[code] = struct{}{}
	}
	h.seenMu.Unlock()
	return h.store.Save(snapshot, h.counters.Processed())
}

// selectProber picks the probe backend. On an interactive console a
// curl-capable host gets the choice the config would otherwise make; a curl
// selection without a curl binary falls back to the HTTP client.
func selectProber(cfg *config.Config, reader *bufio.Reader, interactive bool) probe.Prober {
	timeout := time.Duration(cfg.Probe.TimeoutSeconds) * time.Second
	backend := cfg.Probe.Backend
	if interactive {
		if probe.NewCurlProber(cfg.Hunt.BaseURL, timeout).Available() {
			if promptYesNo(reader, "Use curl instead of the built-in HTTP client? (y/n): ") {
				backend = "curl"
			} else {
				backend = "http"
			}
		}
	}
	if backend == "curl" {
		curl := probe.NewCurlProber(cfg.Hunt.BaseURL, timeout)
		if curl.Available() {
			log.Println("Using curl for URL checks")
			return curl
		}
		log.Println("curl binary not found; falling back to the HTTP backend")
	}
	return probe.NewHTTPProber(cfg.Hunt.BaseURL, timeout)
}

// testSingleCode probes one code synchronously and prints the verdict. Used
// from the interactive pre-flight prompt to sanity-check connectivity.
func testSingleCode(prober probe.Prober, classifier *classify.Classifier, baseURL, code string) {
	target := probe.URL(baseURL, code)
	fmt.Printf("Testing URL: %s\n\n", target)
	res := prober.Probe(context.Background(), code)
	if res.Err != nil {
		fmt.Printf("Probe failed: %v\n", res.Err)
		return
	}
	if !res.Valid {
		fmt.Printf("URL is not valid: %s (status %d)\n", target, res.StatusCode)
		return
	}
	fmt.Printf("Status %d, final URL: %s\n", res.StatusCode, res.FinalURL)
	verdict := classifier.Classify(res.FinalURL)
	switch {
	case verdict.AllFound:
		fmt.Printf("All patterns present (Laddoo Type: %s)\n", verdict.Category)
	case len(verdict.Found) > 0:
		fmt.Printf("Partial match: found %s; missing %s\n",
			strings.Join(verdict.Found, ", "), strings.Join(verdict.Missing, ", "))
	default:
		fmt.Println("Reachable but no reward patterns present")
	}
}

// loadHuntConfig tries the env override first, then the default path. A
// missing file is not an error; the built-in defaults describe a full run.
func loadHuntConfig() (*config.Config, string, error) {
	candidates := make([]string, 0, 2)
	if envPath := strings.TrimSpace(os.Getenv(envConfigPath)); envPath != "" {
		candidates = append(candidates, envPath)
	}
	candidates = append(candidates, defaultConfigPath)

	for _, path := range candidates {
		cfg, err := config.Load(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, path, err
		}
		return cfg, path, nil
	}
	return config.Default(), "", nil
}

func printBanner() {
	fmt.Println(banner)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println(centerText("Hunting Laddoos", 60))
	fmt.Println(strings.Repeat("=", 60))
}

func centerText(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", (width-len(s))/2) + s
}

func isStdinTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func askSystemName(reader *bufio.Reader, cfg *config.Config) {
	name := promptLine(reader, "Enter a name for this process (for identifying the system): ")
	if name == "" {
		fmt.Println("No name provided, using default settings.")
		return
	}
	cfg.SystemName = name
	fmt.Printf("System named as: %s\n", name)
}

func promptLine(reader *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

func promptYesNo(reader *bufio.Reader, prompt string) bool {
	return strings.EqualFold(promptLine(reader, prompt), "y")
}
