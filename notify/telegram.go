// Package notify delivers match alerts, checkpoint snapshots, and log
// batches to a Telegram chat. Every call is fire-and-forget: failures are
// logged locally and never reach the probing pipeline. The orchestrator owns
// the single instance and passes it to whoever publishes events.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"laddoohunt/config"
	"laddoohunt/match"
)

const defaultAPIBase = "https://api.telegram.org"

// Telegram publishes events through the Bot API. The zero-value-disabled
// pattern keeps call sites unconditional: a disabled notifier accepts every
// call and does nothing.
type Telegram struct {
	enabled        bool
	token          string
	chatID         string
	systemName     string
	apiBase        string
	logFile        string
	checkpointFile string
	shareInterval  time.Duration
	logInterval    time.Duration
	shareEnabled   bool

	client *http.Client
	stop   chan struct{}
	wg     sync.WaitGroup

	// mu serializes log-file upload + truncate against concurrent senders.
	mu sync.Mutex
}

// NewTelegram builds the notifier. Missing token or chat ID disables it.
func NewTelegram(cfg config.TelegramConfig, systemName, logFile, checkpointFile string) *Telegram {
	t := &Telegram{
		token:          cfg.Token,
		chatID:         cfg.ChatID,
		systemName:     systemName,
		apiBase:        defaultAPIBase,
		logFile:        logFile,
		checkpointFile: checkpointFile,
		shareInterval:  time.Duration(cfg.ShareIntervalSeconds) * time.Second,
		logInterval:    time.Duration(cfg.LogSendSeconds) * time.Second,
		shareEnabled:   cfg.ShareCheckpoint,
		client:         &http.Client{Timeout: 30 * time.Second},
		stop:           make(chan struct{}),
	}
	if !cfg.Enabled {
		return t
	}
	if t.token == "" || t.chatID == "" {
		log.Printf("Telegram: token or chat ID missing, notifications disabled")
		return t
	}
	t.enabled = true
	return t
}

// Enabled reports whether notifications will actually be sent.
func (t *Telegram) Enabled() bool {
	return t.enabled
}

// Start launches the periodic log and checkpoint senders.
func (t *Telegram) Start() {
	if !t.enabled {
		return
	}
	t.wg.Add(1)
	go t.logSenderLoop()
	if t.shareEnabled {
		t.wg.Add(1)
		go t.checkpointShareLoop()
	}
	log.Printf("Telegram: notifier started (log batch every %s, checkpoint share %v)",
		t.logInterval, t.shareEnabled)
}

// Stop signals the background senders to exit and waits for them.
func (t *Telegram) Stop() {
	if !t.enabled {
		return
	}
	close(t.stop)
	t.wg.Wait()
}

// NotifyMatch announces one confirmed match. Failures are logged only.
func (t *Telegram) NotifyMatch(m *match.Match) {
	if !t.enabled || m == nil {
		return
	}
	var b strings.Builder
	b.WriteString("🎯 *Valid Laddoo Found!*\n\n")
	if t.systemName != "" {
		fmt.Fprintf(&b, "• System: *%s*\n", t.systemName)
	}
	fmt.Fprintf(&b, "• Code: `%s`\n", m.Code)
	fmt.Fprintf(&b, "• URL: %s\n", m.URL)
	fmt.Fprintf(&b, "• Laddoo Type: *%s*\n", m.Category)
	fmt.Fprintf(&b, "• Redirects to: %s\n", m.FinalURL)
	if len(m.Patterns) > 0 {
		b.WriteString("\n*Patterns Found:*\n")
		for _, p := range m.Patterns {
			fmt.Fprintf(&b, "✅ %s\n", p)
		}
	}
	if err := t.sendMessage(b.String()); err != nil {
		log.Printf("Telegram: match notification failed: %v", err)
	}
}

// NotifyCheckpointSnapshot uploads the checkpoint file with a progress caption.
func (t *Telegram) NotifyCheckpointSnapshot(path string, processed uint64) {
	if !t.enabled {
		return
	}
	caption := fmt.Sprintf("📊 Checkpoint Data%s - %s\nTotal Codes Processed: %d",
		t.captionSuffix(), time.Now().UTC().Format("2006-01-02 15:04:05"), processed)
	if err := t.sendDocument(path, caption); err != nil {
		log.Printf("Telegram: checkpoint upload failed: %v", err)
	}
}

// NotifyLogBatch uploads the log file, then truncates it so the next batch
// starts clean.
func (t *Telegram) NotifyLogBatch(path string) {
	if !t.enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return
	}
	caption := fmt.Sprintf("📜 Laddoo Hunter Logs%s - %s",
		t.captionSuffix(), time.Now().UTC().Format("2006-01-02 15:04:05"))
	if err := t.sendDocument(path, caption); err != nil {
		log.Printf("Telegram: log upload failed: %v", err)
		return
	}
	note := fmt.Sprintf("[%s] [INFO] Logs cleared after sending to Telegram\n",
		time.Now().UTC().Format("2006/01/02 15:04:05"))
	if err := os.WriteFile(path, []byte(note), 0o644); err != nil {
		log.Printf("Telegram: log truncate failed: %v", err)
	}
}

func (t *Telegram) logSenderLoop() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.logInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.NotifyLogBatch(t.logFile)
		}
	}
}

func (t *Telegram) checkpointShareLoop() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.shareInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			if _, err := os.Stat(t.checkpointFile); err != nil {
				continue
			}
			t.NotifyCheckpointSnapshot(t.checkpointFile, t.readProcessedCount())
		}
	}
}

// readProcessedCount peeks at the checkpoint file for the caption. Best
// effort: a parse failure just reports zero.
func (t *Telegram) readProcessedCount() uint64 {
	data, err := os.ReadFile(t.checkpointFile)
	if err != nil {
		return 0
	}
	var rec struct {
		Counter uint64 `json:"counter"`
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return 0
	}
	return rec.Counter
}

func (t *Telegram) captionSuffix() string {
	if t.systemName == "" {
		return ""
	}
	return " (" + t.systemName + ")"
}

func (t *Telegram) sendMessage(text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return fmt.Errorf("notify: marshal payload: %w", err)
	}
	resp, err := t.client.Post(t.apiURL("sendMessage"), "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: send message: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notify: send message: status %s", resp.Status)
	}
	return nil
}

func (t *Telegram) sendDocument(path, caption string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("notify: open document: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("chat_id", t.chatID); err != nil {
		return fmt.Errorf("notify: build form: %w", err)
	}
	if err := writer.WriteField("caption", caption); err != nil {
		return fmt.Errorf("notify: build form: %w", err)
	}
	part, err := writer.CreateFormFile("document", file.Name())
	if err != nil {
		return fmt.Errorf("notify: build form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("notify: copy document: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("notify: finalize form: %w", err)
	}

	resp, err := t.client.Post(t.apiURL("sendDocument"), writer.FormDataContentType(), &body)
	if err != nil {
		return fmt.Errorf("notify: send document: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notify: send document: status %s", resp.Status)
	}
	return nil
}

func (t *Telegram) apiURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.apiBase, t.token, method)
}
