package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/exchnew/cartel-v1-demo/internal/model"
)

// JsonlSink appends audit records to a JSONL file, one line per record with
// a kind discriminator.
type JsonlSink struct {
	path string
	mu   sync.Mutex
}

func NewJsonlSink(path string) *JsonlSink {
	return &JsonlSink{path: path}
}

type jsonlRecord struct {
	Kind    string                    `json:"kind"`
	Quote   *model.Quote              `json:"quote,omitempty"`
	Deposit *model.DepositCheckResult `json:"deposit,omitempty"`
}

// PutQuote appends one quote record.
func (s *JsonlSink) PutQuote(_ context.Context, quote model.Quote) error {
	return s.append(jsonlRecord{Kind: "quote", Quote: &quote})
}

// PutDepositCheck appends one deposit check record.
func (s *JsonlSink) PutDepositCheck(_ context.Context, result model.DepositCheckResult) error {
	return s.append(jsonlRecord{Kind: "deposit_check", Deposit: &result})
}

func (s *JsonlSink) append(record jsonlRecord) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}
