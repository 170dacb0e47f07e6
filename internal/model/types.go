package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// NetworkRecord is the document form of a trained network. Weights are +1 or
// -1; hidden layers are indexed [layer][neuron][input] and the output layer
// [neuron][input]. Field names follow the plain network file format so that
// files written without an id or version still load.
type NetworkRecord struct {
	ID                   string    `json:"id,omitempty"`
	SchemaVersion        int       `json:"schemaVersion,omitempty"`
	CodecVersion         int       `json:"codecVersion,omitempty"`
	NumberOfInputs       int       `json:"numberOfInputs"`
	NumberOfHiddenLayers int       `json:"numberOfHiddenLayers"`
	NumberOfOutputs      int       `json:"numberOfOutputs"`
	HiddenLayers         [][][]int `json:"hiddenLayerArray"`
	OutputLayer          [][]int   `json:"outputLayer"`
}

// RunRecord summarizes one training run.
type RunRecord struct {
	VersionedRecord
	ID                     string    `json:"id"`
	Scape                  string    `json:"scape"`
	NetworkID              string    `json:"network_id"`
	ContinuedFrom          string    `json:"continued_from,omitempty"`
	Seed                   int64     `json:"seed"`
	MassiveMutationPercent int       `json:"massive_mutation_percent"`
	StallLimit             int       `json:"stall_limit"`
	MaxGenerations         int       `json:"max_generations"`
	Generations            int       `json:"generations"`
	Restarts               int       `json:"restarts"`
	BestFitness            float64   `json:"best_fitness"`
	Solved                 bool      `json:"solved"`
	CreatedAtUTC           time.Time `json:"created_at_utc"`
}
