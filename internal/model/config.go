package model

// RunConfig is the simulation configuration a workload was generated from.
// It travels with workload snapshots so a dump records where it came from.
type RunConfig struct {
	Framework       string `json:"framework"`
	ModelName       string `json:"modelName"`
	WorldSize       int    `json:"worldSize"`
	TpSize          int    `json:"tpSize"`
	PpSize          int    `json:"ppSize"`
	DpSize          int    `json:"dpSize"`
	GlobalBatchSize int    `json:"globalBatchSize"`
	MicroBatchSize  int    `json:"microBatchSize"`
	SeqLength       int    `json:"seqLength"`
	HiddenSize      int    `json:"hiddenSize"`
	Epochs          int    `json:"epochs"`
}
