package ssl

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
)

//TreeNode is a node of a tree. Tree is stored in an array. LeftIndex and RightIndex are equal to -1
//when the current node is a leaf otherwise they contain array indices of children.
//A leaf node contains LeafIndex that is an index of the LeafNodes array.
type TreeNode struct {
	TreeNodeId            int
	ColumnIndex           int // -1 for a leaf
	ColumnName            string
	Conditions            []string
	LeftIndex, RightIndex int // -1, -1 if it is a leaf
	LeafIndex             int // -1 if it is a non-leaf tree node
	NumberOfRows          int
	Weight                float64
	Gain                  float64
}

//GraphDescription returns the description of a tree node for tree rendering as a graph
func (node TreeNode) GraphDescription() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintln("#", node.NumberOfRows))
	sb.WriteString(fmt.Sprintln("id: ", node.TreeNodeId))
	sb.WriteString(fmt.Sprintln("gain: ", node.Gain))
	if len(node.Conditions) > 0 {
		sb.WriteString(node.Conditions[0])
	}
	return sb.String()
}

func NewTreeNode() TreeNode {
	return TreeNode{ColumnIndex: -1, LeftIndex: -1, RightIndex: -1, LeafIndex: -1}
}

//NewTreeNodeFromSplit creates a new tree node from the conditions of a split.
func NewTreeNodeFromSplit(split *SplitCandidate, m *RowMembership, treeNodeId int) TreeNode {
	treeNode := NewTreeNode()
	treeNode.TreeNodeId = treeNodeId
	treeNode.ColumnIndex = split.Column
	treeNode.ColumnName = split.ColumnName
	for _, condition := range split.Conditions {
		treeNode.Conditions = append(treeNode.Conditions, condition.String())
	}
	treeNode.NumberOfRows = m.RowCount()
	treeNode.Weight = m.TotalWeight()
	treeNode.Gain = split.Gain
	return treeNode
}

//IsLeaf returns whether this node is a LeafNode.
func (node TreeNode) IsLeaf() bool {
	return node.LeafIndex != -1
}

//LeafNode stores leaf-related information: class probabilities for a classification
//target or the mean value for a regression target.
type LeafNode struct {
	LeafNodeId   int
	Prediction   []float64
	NumberOfRows int
	Weight       float64
}

//GraphDescription returns the description of a leaf node for tree rendering as a graph
func (node LeafNode) GraphDescription(labels []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintln("id: ", node.LeafNodeId))
	sb.WriteString("[")
	for ind, val := range node.Prediction {
		if ind < len(labels) {
			sb.WriteString(fmt.Sprintf("  %s: %6.2f,\n", labels[ind], val))
		} else {
			sb.WriteString(fmt.Sprintf("  %6.2f,\n", val))
		}
	}
	sb.WriteString("]\n")
	sb.WriteString(fmt.Sprintln(node.NumberOfRows))
	return sb.String()
}

//NewLeafNode creates a new leaf node from the target priors of its rows.
func NewLeafNode(priors TargetPriors, m *RowMembership) *LeafNode {
	leafNode := &LeafNode{LeafNodeId: -1, NumberOfRows: m.RowCount(), Weight: m.TotalWeight()}
	switch p := priors.(type) {
	case *ClassificationPriors:
		leafNode.Prediction = p.Probabilities()
	case *RegressionPriors:
		leafNode.Prediction = []float64{p.Mean()}
	}
	return leafNode
}

//OneTree describes one grown tree.
type OneTree struct {
	TreeNodes    []TreeNode
	LeafNodes    []LeafNode
	TargetLabels []string
}

//GetLeafDescription returns the description of a leaf node
func (tree OneTree) GetLeafDescription(ind int) string {
	return tree.LeafNodes[tree.TreeNodes[ind].LeafIndex].GraphDescription(tree.TargetLabels)
}

//GetNodeDescription returns the description of a split node
func (tree OneTree) GetNodeDescription(ind int) string {
	return tree.TreeNodes[ind].GraphDescription()
}

//TreeParams collect arguments required to grow a tree.
type TreeParams struct {
	MaxDepth   int
	MinRows    int
	ThreadsNum int
	Search     SearchConfig
}

//NewTree grows one tree over the whole table.
func NewTree(table Table, params TreeParams) (oneTree OneTree) {
	oneTree.TreeNodes = make([]TreeNode, 0)
	oneTree.LeafNodes = make([]LeafNode, 0)
	oneTree.TargetLabels = table.TargetLabels

	(&oneTree).BuildTree(table, table.RootMembership(), nil, params, 0)

	return
}

//BuildTree recurrently builds a tree node. Columns in exhausted are not searched again
//in the subtree.
func (oneTree *OneTree) BuildTree(table Table, m *RowMembership, exhausted map[int]bool, params TreeParams, currentDepth int) int {
	priors := NewTargetPriors(m, table.Target)
	treeNodeId := len(oneTree.TreeNodes)

	if currentDepth < params.MaxDepth && m.RowCount() >= params.MinRows {
		bestSplit := TheBestSplit(table.Columns(), m, priors, params.Search, params.ThreadsNum, exhausted)
		if bestSplit != nil {
			log.Printf("node %d at depth %d: %v", treeNodeId, currentDepth, bestSplit)
			oneTree.TreeNodes = append(oneTree.TreeNodes, NewTreeNodeFromSplit(bestSplit, m, treeNodeId))

			childExhausted := exhausted
			if !bestSplit.CanSplitFurther {
				childExhausted = make(map[int]bool, len(exhausted)+1)
				for column := range exhausted {
					childExhausted[column] = true
				}
				childExhausted[bestSplit.Column] = true
			}

			left, right := bestSplit.Partition(m)
			leftNodeId := oneTree.BuildTree(table, left, childExhausted, params, currentDepth+1)
			oneTree.TreeNodes[treeNodeId].LeftIndex = leftNodeId
			rightNodeId := oneTree.BuildTree(table, right, childExhausted, params, currentDepth+1)
			oneTree.TreeNodes[treeNodeId].RightIndex = rightNodeId

			return treeNodeId
		}
	}

	currentTreeNode := NewTreeNode()
	currentTreeNode.TreeNodeId = treeNodeId
	currentTreeNode.NumberOfRows = m.RowCount()
	currentTreeNode.Weight = m.TotalWeight()
	oneTree.TreeNodes = append(oneTree.TreeNodes, currentTreeNode)

	leafInfo := NewLeafNode(priors, m)
	leafNodeId := len(oneTree.LeafNodes)
	oneTree.TreeNodes[treeNodeId].LeafIndex = leafNodeId
	leafInfo.LeafNodeId = leafNodeId
	oneTree.LeafNodes = append(oneTree.LeafNodes, *leafInfo)
	return treeNodeId
}

//TheBestSplit finds the best split over all columns that are not exhausted.
//Columns are searched on threadsNum goroutines; the first column wins on equal gains.
func TheBestSplit(columns []Column, m *RowMembership, priors TargetPriors, config SearchConfig, threadsNum int, exhausted map[int]bool) *SplitCandidate {
	result := make([]*SplitCandidate, len(columns))
	bestSplitFunc := func(slot int) *SplitCandidate {
		if exhausted[columns[slot].ColumnIndex()] {
			return nil
		}
		return columns[slot].BestSplit(m, priors, config)
	}

	if threadsNum <= 1 {
		for slot := range columns {
			result[slot] = bestSplitFunc(slot)
		}
	} else {
		taskPool := NewPool(threadsNum)
		for slot := range columns {
			taskPool.AddTask(&TaskFindBestSplit{result, slot, bestSplitFunc})
		}
		taskPool.WaitAll()
	}

	var best *SplitCandidate
	for _, currentSplit := range result {
		if currentSplit != nil && (best == nil || currentSplit.Gain > best.Gain) {
			best = currentSplit
		}
	}
	return best
}

func (tree OneTree) Save(filename string) error {
	dest, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { HandleError(dest.Close()) }()

	treeByteRepr, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return err
	}
	_, err = dest.Write(treeByteRepr)
	return err
}

func LoadTree(filename string) (tree OneTree, err error) {
	source, err := os.Open(filename)
	if err != nil {
		return tree, err
	}
	defer func() { HandleError(source.Close()) }()

	err = json.NewDecoder(source).Decode(&tree)
	return
}

func recurrentDraw(g *cgraph.Graph, tree OneTree, nodeNumber int, parentNode *cgraph.Node) {
	currentNode, err := g.CreateNode(fmt.Sprint(tree.TreeNodes[nodeNumber].TreeNodeId))
	HandleError(err)

	if parentNode != nil {
		_, err = g.CreateEdge("", parentNode, currentNode)
		HandleError(err)
	}

	if tree.TreeNodes[nodeNumber].IsLeaf() {
		currentNode.Set("label", tree.GetLeafDescription(nodeNumber))
		currentNode.Set("shape", "box")
	} else {
		currentNode.Set("label", tree.GetNodeDescription(nodeNumber))
		recurrentDraw(g, tree, tree.TreeNodes[nodeNumber].LeftIndex, currentNode)
		recurrentDraw(g, tree, tree.TreeNodes[nodeNumber].RightIndex, currentNode)
	}
}

func (tree OneTree) DrawGraph() (*graphviz.Graphviz, *cgraph.Graph) {
	graphViz := graphviz.New()
	graph, err := graphViz.Graph()
	HandleError(err)

	recurrentDraw(graph, tree, 0, nil)

	return graphViz, graph
}

//RenderTree writes the picture of the tree into the directory.
func (tree OneTree) RenderTree(dumpPrefix, figureType, picturesDirectory string) error {
	graphvizType, ok := map[string]graphviz.Format{
		"png": graphviz.PNG,
		"svg": graphviz.SVG,
		"jpg": graphviz.JPG,
	}[figureType]
	if !ok {
		return fmt.Errorf("unknown figure type %q", figureType)
	}

	filename := fmt.Sprintf("%s.%s", dumpPrefix, figureType)
	graphViz, graph := tree.DrawGraph()
	defer func() {
		HandleError(graph.Close())
		graphViz.Close()
	}()
	return graphViz.RenderFilename(graph, graphvizType, path.Join(picturesDirectory, filename))
}
