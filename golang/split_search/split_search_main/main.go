package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/BurntSushi/toml"
	"github.com/sbinet/npyio"
	"github.com/tarstars/tree_split_search/golang/split_search/ssl"
	"gonum.org/v1/gonum/mat"
)

//decodeConfig reads a json config or, for the .toml extension, a toml one.
func decodeConfig(srcConfig string, out interface{}) {
	if filepath.Ext(srcConfig) == ".toml" {
		_, err := toml.DecodeFile(srcConfig, out)
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	file, err := os.Open(srcConfig)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { ssl.HandleError(file.Close()) }()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(out); err != nil {
		log.Fatal(err)
	}
}

func readTable(tableConfig ssl.TableConfig) ssl.Table {
	table, err := ssl.ReadTable(tableConfig)
	if err != nil {
		log.Fatal(err)
	}
	return table
}

func searchConfig(f ssl.SearchConfigFile) ssl.SearchConfig {
	config, err := f.SearchConfig()
	if err != nil {
		log.Fatal(err)
	}
	return config
}

type SplitConfig struct {
	Table         ssl.TableConfig      `json:"table" toml:"table"`
	Search        ssl.SearchConfigFile `json:"search" toml:"search"`
	ThreadsNum    int                  `json:"threads_num" toml:"threads_num"`
	FileNameGains string               `json:"filename_gains" toml:"filename_gains"`
}

//split prints the best split of every column at the root node and optionally stores the gains.
func split(srcConfig string) {
	var splitConfig SplitConfig
	decodeConfig(srcConfig, &splitConfig)

	table := readTable(splitConfig.Table)
	config := searchConfig(splitConfig.Search)

	root := table.RootMembership()
	priors := ssl.NewTargetPriors(root, table.Target)
	log.Print("root: ", priors)

	columns := table.Columns()
	gains := mat.NewDense(len(columns), 1, nil)
	for ind, column := range columns {
		candidate := column.BestSplit(root, priors, config)
		if candidate == nil {
			fmt.Printf("%s: no split\n", column.ColumnName())
			continue
		}
		gains.Set(ind, 0, candidate.Gain)
		fmt.Printf("%s: %v\n", column.ColumnName(), candidate)
	}

	best := ssl.TheBestSplit(columns, root, priors, config, splitConfig.ThreadsNum, nil)
	if best != nil {
		fmt.Printf("best: %s %v\n", best.ColumnName, best)
	}

	if splitConfig.FileNameGains != "" {
		dst, err := os.Create(splitConfig.FileNameGains)
		ssl.HandleError(err)
		defer func() { ssl.HandleError(dst.Close()) }()
		ssl.HandleError(npyio.Write(dst, gains))
	}
}

type GrowConfig struct {
	Table         ssl.TableConfig      `json:"table" toml:"table"`
	Search        ssl.SearchConfigFile `json:"search" toml:"search"`
	MaxDepth      int                  `json:"max_depth" toml:"max_depth"`
	MinRows       int                  `json:"min_rows" toml:"min_rows"`
	ThreadsNum    int                  `json:"threads_num" toml:"threads_num"`
	FileNameModel string               `json:"filename_model" toml:"filename_model"`
}

func grow(srcConfig string) {
	var growConfig GrowConfig
	decodeConfig(srcConfig, &growConfig)

	table := readTable(growConfig.Table)
	tree := ssl.NewTree(table, ssl.TreeParams{
		MaxDepth:   growConfig.MaxDepth,
		MinRows:    growConfig.MinRows,
		ThreadsNum: growConfig.ThreadsNum,
		Search:     searchConfig(growConfig.Search),
	})
	log.Printf("grown %d nodes, %d leaves", len(tree.TreeNodes), len(tree.LeafNodes))

	if err := tree.Save(growConfig.FileNameModel); err != nil {
		log.Fatal(err)
	}
}

type GraphConfig struct {
	ModelFileName     string `json:"filename_model" toml:"filename_model"`
	FigureType        string `json:"figure_type" toml:"figure_type"`
	PicturesDirectory string `json:"pictures_directory" toml:"pictures_directory"`
	DumpPrefix        string `json:"dump_prefix" toml:"dump_prefix"`
}

func graph(srcConfig string) {
	var graphConfig GraphConfig
	decodeConfig(srcConfig, &graphConfig)

	tree, err := ssl.LoadTree(graphConfig.ModelFileName)
	if err != nil {
		log.Fatal(err)
	}
	if err := tree.RenderTree(graphConfig.DumpPrefix, graphConfig.FigureType, graphConfig.PicturesDirectory); err != nil {
		log.Fatal(err)
	}
}

type OrderConfig struct {
	Table  ssl.TableConfig      `json:"table" toml:"table"`
	Search ssl.SearchConfigFile `json:"search" toml:"search"`
	Column string               `json:"column" toml:"column"`
}

//order prints the values of a nominal column along the dominant class probability component.
func order(srcConfig string) {
	var orderConfig OrderConfig
	decodeConfig(srcConfig, &orderConfig)

	table := readTable(orderConfig.Table)
	config := searchConfig(orderConfig.Search)
	target, ok := table.Target.(*ssl.NominalTarget)
	if !ok {
		log.Fatal("the order mode needs a nominal target")
	}

	for _, column := range table.NominalColumns {
		if column.Name != orderConfig.Column {
			continue
		}
		root := table.RootMembership()
		contingency := ssl.NewContingencyTable(column, root, target)
		codes := make([]int, len(column.Values))
		for ind := range codes {
			codes[ind] = ind
		}
		combined := ssl.CombinedValuesFromTable(column, contingency, codes)
		total := 0.0
		for _, c := range combined {
			total += c.Weight()
		}
		for _, c := range ssl.OrderByDominantComponent(combined, total, target.NumClasses, config.SignConvention) {
			fmt.Printf("%s\t%v\n", column.Values[c.FirstIndex()].Value, c.Probabilities())
		}
		return
	}
	log.Fatalf("no nominal column %q", orderConfig.Column)
}

func main() {
	runMode := flag.String("mode", "split", "you can select either 'split', 'grow', 'graph' or 'order' modes")
	config := flag.String("config", "split_config.json", "a config file for the run of the program (json or toml)")
	memprofile := flag.String("memprofile", "", "write memory profile to `file`")

	flag.Parse()

	modeFunc, ok := map[string]func(string){
		"split": split,
		"grow":  grow,
		"graph": graph,
		"order": order,
	}[*runMode]
	if !ok {
		log.Fatalf("unknown mode %q", *runMode)
	}
	modeFunc(*config)

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		ssl.HandleError(err)
		defer func() { ssl.HandleError(f.Close()) }()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal("could not write memory profile: ", err)
		}
	}
}
