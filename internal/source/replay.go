package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/khanhnv2901/seca-headers/internal/checker"
	consts "github.com/khanhnv2901/seca-headers/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/seca-headers/internal/shared/errors"
	"github.com/khanhnv2901/seca-headers/internal/shared/filelock"
	"go.uber.org/zap"
	"golang.org/x/net/http/httpguts"
	"gopkg.in/yaml.v3"
)

// ReplayEntry is one recorded response.
type ReplayEntry struct {
	URL     string        `yaml:"url"`
	Status  int           `yaml:"status,omitempty"`
	Headers replayHeaders `yaml:"headers"`
}

// ReplayFile is the on-disk replay document. JSON files are accepted too,
// since the YAML decoder reads JSON.
type ReplayFile struct {
	Entries []ReplayEntry `yaml:"entries"`
}

// replayHeaders keeps header order from the file. Headers may be written as a
// list of {name, value} pairs or as a mapping.
type replayHeaders checker.Headers

type replayHeader struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

func (h *replayHeaders) UnmarshalYAML(node *yaml.Node) error {
	var out checker.Headers
	switch node.Kind {
	case yaml.SequenceNode:
		var pairs []replayHeader
		if err := node.Decode(&pairs); err != nil {
			return err
		}
		for _, p := range pairs {
			out = append(out, checker.Header{Name: p.Name, Value: p.Value})
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			var name, value string
			if err := node.Content[i].Decode(&name); err != nil {
				return err
			}
			if err := node.Content[i+1].Decode(&value); err != nil {
				return fmt.Errorf("header %s: %w", name, err)
			}
			out = append(out, checker.Header{Name: name, Value: value})
		}
	default:
		return fmt.Errorf("line %d: headers must be a list or a mapping", node.Line)
	}
	*h = replayHeaders(out)
	return nil
}

func (h replayHeaders) MarshalYAML() (interface{}, error) {
	pairs := make([]replayHeader, 0, len(h))
	for _, hdr := range h {
		pairs = append(pairs, replayHeader{Name: hdr.Name, Value: hdr.Value})
	}
	return pairs, nil
}

// ParseReplay decodes and validates a replay document.
func ParseReplay(data []byte) (*ReplayFile, error) {
	var doc ReplayFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", sharedErrors.ErrInvalidReplay, err)
	}

	for i := range doc.Entries {
		entry := &doc.Entries[i]
		u, err := checker.NormalizeTarget(entry.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", sharedErrors.ErrInvalidReplay, i+1, err)
		}
		entry.URL = u
		for _, hdr := range entry.Headers {
			if !httpguts.ValidHeaderFieldName(hdr.Name) {
				return nil, fmt.Errorf("%w: entry %d: invalid header name %q", sharedErrors.ErrInvalidReplay, i+1, hdr.Name)
			}
			if !httpguts.ValidHeaderFieldValue(hdr.Value) {
				return nil, fmt.Errorf("%w: entry %d: invalid value for header %s", sharedErrors.ErrInvalidReplay, i+1, hdr.Name)
			}
		}
	}
	return &doc, nil
}

// LoadReplay reads a replay file from disk. A missing file is an empty replay.
func LoadReplay(path string) (*ReplayFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &ReplayFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read replay file: %w", err)
	}
	return ParseReplay(data)
}

// Lookup returns the last entry recorded for target.
func (f *ReplayFile) Lookup(target string) (ReplayEntry, bool) {
	u, err := checker.NormalizeTarget(target)
	if err != nil {
		return ReplayEntry{}, false
	}
	for i := len(f.Entries) - 1; i >= 0; i-- {
		if f.Entries[i].URL == u {
			return f.Entries[i], true
		}
	}
	return ReplayEntry{}, false
}

// Upsert replaces the entry for entry.URL or appends it.
func (f *ReplayFile) Upsert(entry ReplayEntry) {
	for i := range f.Entries {
		if f.Entries[i].URL == entry.URL {
			f.Entries[i] = entry
			return
		}
	}
	f.Entries = append(f.Entries, entry)
}

// ReplaySource serves headers from a replay file instead of the network.
type ReplaySource struct {
	file *ReplayFile
}

// NewReplaySource loads path. The file must exist.
func NewReplaySource(path string) (*ReplaySource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", sharedErrors.ErrInvalidReplay, err)
	}
	file, err := LoadReplay(path)
	if err != nil {
		return nil, err
	}
	return &ReplaySource{file: file}, nil
}

// Fetch returns the recorded observation for target.
func (s *ReplaySource) Fetch(ctx context.Context, target string) (checker.Observation, error) {
	if err := ctx.Err(); err != nil {
		return checker.Observation{}, &FetchError{Target: target, Err: err}
	}
	entry, ok := s.file.Lookup(target)
	if !ok {
		return checker.Observation{}, &FetchError{Target: target, Err: sharedErrors.ErrNotInReplay}
	}
	return checker.Observation{
		URL:        entry.URL,
		FinalURL:   entry.URL,
		StatusCode: entry.Status,
		Headers:    append(checker.Headers(nil), entry.Headers...),
	}, nil
}

// Recorder wraps another source and saves every successful observation to a
// replay file so the run can be repeated offline.
type Recorder struct {
	Source checker.HeaderSource
	Path   string
	Logger *zap.Logger

	mu sync.Mutex
}

// Fetch delegates to the wrapped source and records the result.
func (r *Recorder) Fetch(ctx context.Context, target string) (checker.Observation, error) {
	obs, err := r.Source.Fetch(ctx, target)
	if err != nil {
		return obs, err
	}
	if err := r.record(ctx, obs); err != nil {
		logger := r.Logger
		if logger == nil {
			logger = zap.NewNop()
		}
		logger.Warn("failed to record observation", zap.String("url", obs.URL), zap.String("path", r.Path), zap.Error(err))
	}
	return obs, nil
}

func (r *Recorder) record(ctx context.Context, obs checker.Observation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.Path), consts.DefaultDirPerm); err != nil {
		return fmt.Errorf("create replay directory: %w", err)
	}

	return filelock.With(ctx, r.Path, func() error {
		file, err := LoadReplay(r.Path)
		if err != nil {
			return err
		}
		file.Upsert(ReplayEntry{URL: obs.URL, Status: obs.StatusCode, Headers: replayHeaders(obs.Headers)})

		data, err := yaml.Marshal(file)
		if err != nil {
			return fmt.Errorf("encode replay file: %w", err)
		}
		tmp := r.Path + ".tmp"
		if err := os.WriteFile(tmp, data, consts.DefaultFilePerm); err != nil {
			return fmt.Errorf("write replay file: %w", err)
		}
		return os.Rename(tmp, r.Path)
	})
}
