// Package sim runs batches of AI-vs-AI matches and keeps standings, for
// deck and policy evaluation. A series is reproducible: game i always
// plays with seed BaseSeed+i, and seats alternate so neither contender
// banks the first-turn advantage.
package sim

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pokefree/ptcg-sim-go/internal/catalog"
	"github.com/pokefree/ptcg-sim-go/internal/game"
	"github.com/pokefree/ptcg-sim-go/internal/match"
)

// Contender is one side of a series: a deck list and a policy factory.
// The factory gets the per-game seed so stochastic policies stay
// reproducible without sharing a stream across concurrent games.
type Contender struct {
	Name      string
	Deck      []catalog.ID
	NewPolicy func(seed int64) match.Policy
}

// Config controls a series run.
type Config struct {
	Catalog  *catalog.Catalog
	Games    int
	BaseSeed int64
	MaxTurns int

	// Workers bounds concurrent games; <= 0 means sequential.
	Workers int

	// ReplayDir enables replay capture: every game is saved there as a
	// gzipped replay file named by its match ID.
	ReplayDir string
}

// GameRecord is the outcome of one game of the series.
type GameRecord struct {
	Index   int    `json:"index"`
	MatchID string `json:"match_id"`
	Seed    int64  `json:"seed"`
	Winner  string `json:"winner,omitempty"`
	IsDraw  bool   `json:"is_draw"`
	Turns   int    `json:"turns"`
	Reason  string `json:"reason"`
}

// Standing aggregates one contender's results. Points follow the usual
// 3/1/0 scheme.
type Standing struct {
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Draws  int    `json:"draws"`
	Points int    `json:"points"`
}

// Result is the full outcome of a series.
type Result struct {
	ID        string        `json:"id"`
	Games     []GameRecord  `json:"games"`
	Standings []Standing    `json:"standings"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Series plays a configured number of games between two contenders.
type Series struct {
	id       string
	cfg      Config
	logger   *zap.Logger
	engine   *match.Engine
	recorder *game.ReplayRecorder

	mu        sync.Mutex
	records   []GameRecord
	standings map[string]*Standing
}

// NewSeries creates a series runner.
func NewSeries(cfg Config, logger *zap.Logger) *Series {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Games <= 0 {
		cfg.Games = 1
	}
	s := &Series{
		id:        uuid.NewString(),
		cfg:       cfg,
		logger:    logger,
		engine:    match.NewEngine(logger),
		standings: make(map[string]*Standing),
	}
	if cfg.ReplayDir != "" {
		s.recorder = game.NewReplayRecorder(logger, cfg.ReplayDir)
	}
	return s
}

// Run plays the series to completion and returns standings sorted by
// points. Game errors abort the series; an engine failure is never a
// result.
func (s *Series) Run(a, b Contender) (*Result, error) {
	if s.cfg.Catalog == nil {
		return nil, fmt.Errorf("series: nil catalog")
	}
	start := time.Now()
	s.standings[a.Name] = &Standing{Name: a.Name}
	s.standings[b.Name] = &Standing{Name: b.Name}
	s.records = make([]GameRecord, s.cfg.Games)

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > s.cfg.Games {
		workers = s.cfg.Games
	}

	indices := make(chan int, s.cfg.Games)
	for i := 0; i < s.cfg.Games; i++ {
		indices <- i
	}
	close(indices)

	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				if err := s.playGame(i, a, b); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()

	select {
	case err := <-errs:
		return nil, err
	default:
	}

	s.logger.Info("series finished",
		zap.String("series_id", s.id),
		zap.Int("games", s.cfg.Games),
		zap.Duration("elapsed", time.Since(start)),
	)
	return s.result(time.Since(start)), nil
}

// playGame runs game i. Seats alternate by game parity so first-player
// advantage averages out over the series.
func (s *Series) playGame(i int, a, b Contender) error {
	seed := s.cfg.BaseSeed + int64(i)
	first, second := a, b
	if i%2 == 1 {
		first, second = b, a
	}

	state, err := game.NewMatch(game.MatchConfig{
		Catalog: s.cfg.Catalog,
		Seed:    seed,
		Names:   [2]string{first.Name, second.Name},
		Decks:   [2][]catalog.ID{first.Deck, second.Deck},
	})
	if err != nil {
		return fmt.Errorf("game %d: %w", i, err)
	}

	if s.recorder != nil {
		s.recorder.StartRecording(state, [2]string{first.Name, second.Name},
			[2][]catalog.ID{first.Deck, second.Deck})
	}

	runner := match.NewRunner(s.engine, s.logger, s.recorder, s.cfg.MaxTurns)
	policies := [2]match.Policy{first.NewPolicy(seed), second.NewPolicy(seed + 1)}
	outcome, err := runner.Run(state, policies)
	if err != nil {
		return fmt.Errorf("game %d: %w", i, err)
	}
	if s.recorder != nil {
		if err := s.recorder.SaveReplay(state.MatchID); err != nil {
			return fmt.Errorf("game %d: %w", i, err)
		}
	}

	record := GameRecord{
		Index:   i,
		MatchID: outcome.MatchID,
		Seed:    seed,
		IsDraw:  outcome.IsDraw,
		Turns:   outcome.Turns,
		Reason:  outcome.Reason,
	}
	if outcome.Winner != nil {
		record.Winner = state.Player(*outcome.Winner).Name
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[i] = record
	switch {
	case outcome.IsDraw:
		s.standings[first.Name].Draws++
		s.standings[first.Name].Points++
		s.standings[second.Name].Draws++
		s.standings[second.Name].Points++
	case record.Winner == first.Name:
		s.standings[first.Name].Wins++
		s.standings[first.Name].Points += 3
		s.standings[second.Name].Losses++
	default:
		s.standings[second.Name].Wins++
		s.standings[second.Name].Points += 3
		s.standings[first.Name].Losses++
	}
	return nil
}

func (s *Series) result(elapsed time.Duration) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	standings := make([]Standing, 0, len(s.standings))
	for _, st := range s.standings {
		standings = append(standings, *st)
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Points != standings[j].Points {
			return standings[i].Points > standings[j].Points
		}
		return standings[i].Name < standings[j].Name
	})

	return &Result{
		ID:        s.id,
		Games:     append([]GameRecord(nil), s.records...),
		Standings: standings,
		Elapsed:   elapsed,
	}
}
