package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pokefree/ptcg-sim-go/internal/catalog"
)

// ReplayStep is one applied action together with the events it produced.
type ReplayStep struct {
	Action Action
	Events []Event
}

// Replay stores everything needed to reproduce a match bit-for-bit: the
// seed, the deck lists, and the ordered action sequence. Replaying the
// actions against a fresh match with the same seed yields the identical
// event log and terminal state.
type Replay struct {
	MatchID string
	Seed    int64
	Names   [2]string
	Decks   [2][]catalog.ID
	Steps   []ReplayStep

	mu sync.RWMutex
}

// NewReplay creates an empty replay for a match.
func NewReplay(matchID string, seed int64, names [2]string, decks [2][]catalog.ID) *Replay {
	return &Replay{
		MatchID: matchID,
		Seed:    seed,
		Names:   names,
		Decks:   decks,
	}
}

// RecordStep appends an applied action and its events.
func (r *Replay) RecordStep(action Action, events []Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Steps = append(r.Steps, ReplayStep{Action: action, Events: events})
}

// Actions returns the ordered action sequence.
func (r *Replay) Actions() []Action {
	r.mu.RLock()
	defer r.mu.RUnlock()
	actions := make([]Action, len(r.Steps))
	for i, step := range r.Steps {
		actions[i] = step.Action
	}
	return actions
}

// Size returns the number of recorded steps.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Steps)
}

// replayMetadata describes a saved replay file.
type replayMetadata struct {
	MatchID   string
	Timestamp time.Time
	Version   int
	StepCount int
}

// SaveToFile writes the replay to a gzipped gob file under directory.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.MatchID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	encoder := gob.NewEncoder(gzipWriter)
	metadata := replayMetadata{
		MatchID:   r.MatchID,
		Timestamp: time.Now(),
		Version:   1,
		StepCount: len(r.Steps),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := encoder.Encode(r.Seed); err != nil {
		return fmt.Errorf("failed to encode seed: %w", err)
	}
	if err := encoder.Encode(r.Names); err != nil {
		return fmt.Errorf("failed to encode names: %w", err)
	}
	if err := encoder.Encode(r.Decks); err != nil {
		return fmt.Errorf("failed to encode decks: %w", err)
	}
	for i := range r.Steps {
		if err := encoder.Encode(&r.Steps[i]); err != nil {
			return fmt.Errorf("failed to encode step %d: %w", i, err)
		}
	}
	return nil
}

// LoadReplayFromFile reads a replay back from disk.
func LoadReplayFromFile(directory, matchID string) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", matchID))
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)
	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != 1 {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := &Replay{MatchID: metadata.MatchID}
	if err := decoder.Decode(&replay.Seed); err != nil {
		return nil, fmt.Errorf("failed to decode seed: %w", err)
	}
	if err := decoder.Decode(&replay.Names); err != nil {
		return nil, fmt.Errorf("failed to decode names: %w", err)
	}
	if err := decoder.Decode(&replay.Decks); err != nil {
		return nil, fmt.Errorf("failed to decode decks: %w", err)
	}
	for i := 0; i < metadata.StepCount; i++ {
		var step ReplayStep
		if err := decoder.Decode(&step); err != nil {
			return nil, fmt.Errorf("failed to decode step %d: %w", i, err)
		}
		replay.Steps = append(replay.Steps, step)
	}
	return replay, nil
}

// ReplayRecorder manages replay recording across matches.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay
	saveDir string
}

// NewReplayRecorder creates a recorder that saves under saveDir.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		saveDir: saveDir,
	}
}

// StartRecording begins recording a match.
func (rr *ReplayRecorder) StartRecording(s *State, names [2]string, decks [2][]catalog.ID) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.replays[s.MatchID] = NewReplay(s.MatchID, s.Seed, names, decks)
	if rr.logger != nil {
		rr.logger.Info("started replay recording", zap.String("match_id", s.MatchID))
	}
}

// RecordStep records an applied action if the match is being recorded.
func (rr *ReplayRecorder) RecordStep(matchID string, action Action, events []Event) {
	rr.mu.RLock()
	replay := rr.replays[matchID]
	rr.mu.RUnlock()
	if replay == nil {
		return
	}
	replay.RecordStep(action, events)
}

// GetReplay returns the in-memory replay for a match.
func (rr *ReplayRecorder) GetReplay(matchID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	replay, exists := rr.replays[matchID]
	return replay, exists
}

// SaveReplay flushes a replay to disk and drops it from memory.
func (rr *ReplayRecorder) SaveReplay(matchID string) error {
	rr.mu.Lock()
	replay, exists := rr.replays[matchID]
	if !exists {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for match %s", matchID)
	}
	delete(rr.replays, matchID)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}
	if rr.logger != nil {
		rr.logger.Info("saved replay to disk",
			zap.String("match_id", matchID),
			zap.Int("step_count", replay.Size()),
			zap.String("directory", rr.saveDir),
		)
	}
	return nil
}
