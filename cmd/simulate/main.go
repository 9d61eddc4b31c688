// simulate plays a batch of AI-vs-AI matches between two deck lists and
// prints the standings, for deck and policy evaluation from the shell.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/pokefree/ptcg-sim-go/internal/ai"
	"github.com/pokefree/ptcg-sim-go/internal/catalog"
	"github.com/pokefree/ptcg-sim-go/internal/config"
	"github.com/pokefree/ptcg-sim-go/internal/match"
	"github.com/pokefree/ptcg-sim-go/internal/sim"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	cardsPath := flag.String("cards", "data/cards.json", "path to the card database file")
	deckAPath := flag.String("deck-a", "", "path to contender A's deck list")
	deckBPath := flag.String("deck-b", "", "path to contender B's deck list")
	policyA := flag.String("policy-a", "greedy", "policy for contender A (greedy|random)")
	policyB := flag.String("policy-b", "greedy", "policy for contender B (greedy|random)")
	games := flag.Int("games", 0, "number of games (0 uses the config default)")
	seed := flag.Int64("seed", 0, "base seed (0 uses the config default)")
	workers := flag.Int("workers", 0, "concurrent games (0 uses the config default)")
	replayDir := flag.String("replays", "", "save a replay file per game into this directory")
	verbose := flag.Bool("verbose", false, "print per-game results")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *games <= 0 {
		*games = cfg.Sim.Games
	}
	if *seed == 0 {
		*seed = cfg.Sim.BaseSeed
	}
	if *workers <= 0 {
		*workers = cfg.Sim.Workers
	}
	if *deckAPath == "" || *deckBPath == "" {
		log.Fatal("both -deck-a and -deck-b are required")
	}

	cat, err := catalog.LoadFile(*cardsPath)
	if err != nil {
		log.Fatalf("failed to load card database: %v", err)
	}

	a, err := loadContender(cat, *deckAPath, *policyA)
	if err != nil {
		log.Fatalf("contender A: %v", err)
	}
	b, err := loadContender(cat, *deckBPath, *policyB)
	if err != nil {
		log.Fatalf("contender B: %v", err)
	}

	series := sim.NewSeries(sim.Config{
		Catalog:   cat,
		Games:     *games,
		BaseSeed:  *seed,
		MaxTurns:  cfg.Sim.MaxTurns,
		Workers:   *workers,
		ReplayDir: *replayDir,
	}, zap.NewNop())

	result, err := series.Run(a, b)
	if err != nil {
		log.Fatalf("series failed: %v", err)
	}

	if *verbose {
		printGames(result)
	}
	printStandings(result)
}

// loadContender resolves a deck list file and binds it to a policy.
func loadContender(cat *catalog.Catalog, deckPath, policy string) (sim.Contender, error) {
	list, err := catalog.LoadDeckList(deckPath)
	if err != nil {
		return sim.Contender{}, err
	}
	ids, err := cat.Resolve(list)
	if err != nil {
		return sim.Contender{}, err
	}

	name := list.Name
	if name == "" {
		name = deckPath
	}
	name = fmt.Sprintf("%s (%s)", name, policy)

	var factory func(seed int64) match.Policy
	switch policy {
	case "greedy":
		factory = func(int64) match.Policy { return ai.NewHeuristic() }
	case "random":
		factory = func(seed int64) match.Policy { return ai.NewRandom(seed) }
	default:
		return sim.Contender{}, fmt.Errorf("unknown policy %q", policy)
	}
	return sim.Contender{Name: name, Deck: ids, NewPolicy: factory}, nil
}

func printGames(result *sim.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GAME\tSEED\tWINNER\tTURNS\tREASON")
	for _, g := range result.Games {
		winner := g.Winner
		if g.IsDraw {
			winner = "(draw)"
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%s\n", g.Index, g.Seed, winner, g.Turns, g.Reason)
	}
	w.Flush()
	fmt.Println()
}

func printStandings(result *sim.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONTENDER\tWINS\tLOSSES\tDRAWS\tPOINTS")
	for _, st := range result.Standings {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", st.Name, st.Wins, st.Losses, st.Draws, st.Points)
	}
	w.Flush()
	fmt.Printf("\n%d games in %s\n", len(result.Games), result.Elapsed.Round(time.Millisecond))
}
