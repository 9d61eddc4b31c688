package energy

// Type represents one of the energy types cards can provide or require.
type Type string

const (
	Grass     Type = "GRASS"
	Fire      Type = "FIRE"
	Water     Type = "WATER"
	Lightning Type = "LIGHTNING"
	Psychic   Type = "PSYCHIC"
	Fighting  Type = "FIGHTING"
	Darkness  Type = "DARKNESS"
	Metal     Type = "METAL"
	Fairy     Type = "FAIRY"
	Dragon    Type = "DRAGON"

	// Colorless never appears as a provided type on a basic energy card;
	// in a cost it is satisfiable by energy of any type.
	Colorless Type = "COLORLESS"
)

// AllTypes lists the concrete (providable) energy types in a stable order.
// The order matters: deterministic payment selection iterates it.
var AllTypes = []Type{
	Grass, Fire, Water, Lightning, Psychic,
	Fighting, Darkness, Metal, Fairy, Dragon,
}

var typeSymbols = map[string]Type{
	"G": Grass,
	"R": Fire,
	"W": Water,
	"L": Lightning,
	"P": Psychic,
	"F": Fighting,
	"D": Darkness,
	"M": Metal,
	"Y": Fairy,
	"N": Dragon,
	"C": Colorless,
}

var symbolForType = map[Type]string{
	Grass:     "G",
	Fire:      "R",
	Water:     "W",
	Lightning: "L",
	Psychic:   "P",
	Fighting:  "F",
	Darkness:  "D",
	Metal:     "M",
	Fairy:     "Y",
	Dragon:    "N",
	Colorless: "C",
}

// Valid reports whether t is a known energy type.
func (t Type) Valid() bool {
	_, ok := symbolForType[t]
	return ok
}

// Symbol returns the single-letter cost symbol for the type.
func (t Type) Symbol() string {
	return symbolForType[t]
}
