package ssl

import (
	"fmt"
	"log"
	"math/rand"
)

//MissingValuePolicy decides where rows with a missing attribute value go.
type MissingValuePolicy int

const (
	//MissingExclude leaves missing rows out of the search; a separate condition claims them.
	MissingExclude MissingValuePolicy = iota
	//MissingAssignLeft always sends missing rows to the left child.
	MissingAssignLeft
	//MissingDualDirection tries missing rows on both sides and keeps the better one.
	MissingDualDirection
)

func (p MissingValuePolicy) String() string {
	switch p {
	case MissingExclude:
		return "exclude"
	case MissingAssignLeft:
		return "left"
	case MissingDualDirection:
		return "dual"
	}
	return fmt.Sprintf("MissingValuePolicy(%d)", int(p))
}

//ParseMissingValuePolicy maps a configuration string to a MissingValuePolicy.
func ParseMissingValuePolicy(name string) (MissingValuePolicy, error) {
	switch name {
	case "exclude", "":
		return MissingExclude, nil
	case "left":
		return MissingAssignLeft, nil
	case "dual", "xgboost":
		return MissingDualDirection, nil
	default:
		return 0, fmt.Errorf("unknown missing value policy %q", name)
	}
}

//NominalStrategy is the search used for nominal columns with more values than
//the exhaustive search accepts.
type NominalStrategy int

const (
	//NominalLinear orders values (PCA for classes, mean for regression) and tries adjacent cuts.
	NominalLinear NominalStrategy = iota
	//NominalRandom samples random bipartitions.
	NominalRandom
)

//ParseNominalStrategy maps a configuration string to a NominalStrategy.
func ParseNominalStrategy(name string) (NominalStrategy, error) {
	switch name {
	case "pca", "linear", "":
		return NominalLinear, nil
	case "random":
		return NominalRandom, nil
	default:
		return 0, fmt.Errorf("unknown nominal strategy %q", name)
	}
}

//DefaultMaxExhaustiveValues is the largest number of nominal values searched exhaustively
//unless configured otherwise.
const DefaultMaxExhaustiveValues = 12

//SearchConfig collects the choices of one split search.
type SearchConfig struct {
	MissingPolicy MissingValuePolicy
	Criterion     Criterion
	// nominal columns with more values switch to LargeNominalStrategy
	MaxExhaustiveValues  int
	LargeNominalStrategy NominalStrategy
	RandomSamples        int
	Seed                 int64
	// both children need at least this weight of rows with a known target
	MinChildWeight float64
	SignConvention SignConvention
}

//DefaultSearchConfig returns the configuration of a Gini search excluding missing values.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		MissingPolicy:        MissingExclude,
		Criterion:            GiniCriterion{},
		MaxExhaustiveValues:  DefaultMaxExhaustiveValues,
		LargeNominalStrategy: NominalLinear,
		RandomSamples:        1000,
		SignConvention:       SignLargestComponentPositive,
	}
}

func (config SearchConfig) validate() {
	if config.Criterion == nil {
		log.Panic("the search configuration has no criterion")
	}
	if config.MaxExhaustiveValues < 0 || config.MaxExhaustiveValues > MaxBitmaskValues {
		log.Panicf("MaxExhaustiveValues %d is out of range [0, %d]", config.MaxExhaustiveValues, MaxBitmaskValues)
	}
	if config.LargeNominalStrategy == NominalRandom && config.RandomSamples < 1 {
		log.Panicf("the random strategy needs a positive number of samples, got %d", config.RandomSamples)
	}
	if config.MinChildWeight < 0 {
		log.Panicf("negative MinChildWeight %g", config.MinChildWeight)
	}
}

//randomSource returns a source private to one column search.
func (config SearchConfig) randomSource(column int) *rand.Rand {
	return rand.New(rand.NewSource(config.Seed*1000003 + int64(column)))
}

//SearchConfigFile is the serialized form of SearchConfig.
type SearchConfigFile struct {
	MissingPolicy        string  `json:"missing_policy" toml:"missing_policy"`
	Criterion            string  `json:"criterion" toml:"criterion"`
	MaxExhaustiveValues  int     `json:"max_exhaustive_values" toml:"max_exhaustive_values"`
	LargeNominalStrategy string  `json:"large_nominal_strategy" toml:"large_nominal_strategy"`
	RandomSamples        int     `json:"random_samples" toml:"random_samples"`
	Seed                 int64   `json:"seed" toml:"seed"`
	MinChildWeight       float64 `json:"min_child_weight" toml:"min_child_weight"`
	SignConvention       string  `json:"sign_convention" toml:"sign_convention"`
}

//SearchConfig converts the serialized form, filling zero numbers with defaults.
func (f SearchConfigFile) SearchConfig() (config SearchConfig, err error) {
	config = DefaultSearchConfig()
	if config.MissingPolicy, err = ParseMissingValuePolicy(f.MissingPolicy); err != nil {
		return
	}
	if config.Criterion, err = ParseCriterion(f.Criterion); err != nil {
		return
	}
	if config.LargeNominalStrategy, err = ParseNominalStrategy(f.LargeNominalStrategy); err != nil {
		return
	}
	if config.SignConvention, err = ParseSignConvention(f.SignConvention); err != nil {
		return
	}
	if f.MaxExhaustiveValues != 0 {
		if f.MaxExhaustiveValues < 0 || f.MaxExhaustiveValues > MaxBitmaskValues {
			return config, fmt.Errorf("max_exhaustive_values %d is out of range [1, %d]", f.MaxExhaustiveValues, MaxBitmaskValues)
		}
		config.MaxExhaustiveValues = f.MaxExhaustiveValues
	}
	if f.RandomSamples != 0 {
		config.RandomSamples = f.RandomSamples
	}
	config.Seed = f.Seed
	config.MinChildWeight = f.MinChildWeight
	return config, nil
}
