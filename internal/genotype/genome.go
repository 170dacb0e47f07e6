package genotype

import (
	"errors"
	"fmt"
	"math/rand"
)

// Gene is a single two-valued weight.
type Gene int8

const (
	Negative Gene = -1
	Positive Gene = 1
)

var (
	ErrGeneCount       = errors.New("genome requires at least one gene")
	ErrIndexOutOfRange = errors.New("gene index out of range")
	ErrInvalidGene     = errors.New("gene must be +1 or -1")
	ErrLengthMismatch  = errors.New("genome length mismatch")
	ErrNilRandom       = errors.New("random source is required")
)

// Valid reports whether g is one of the two legal gene values.
func (g Gene) Valid() bool {
	return g == Positive || g == Negative
}

// Flip returns the opposite gene.
func (g Gene) Flip() Gene {
	return -g
}

// Genome is a fixed-length sequence of genes. Its length never changes after
// construction.
type Genome struct {
	genes []Gene
}

// New returns a genome of the given length with every gene drawn 50/50.
func New(rng *rand.Rand, length int) (*Genome, error) {
	if rng == nil {
		return nil, ErrNilRandom
	}
	if length < 1 {
		return nil, fmt.Errorf("%w: length=%d", ErrGeneCount, length)
	}
	genes := make([]Gene, length)
	for i := range genes {
		genes[i] = randomGene(rng)
	}
	return &Genome{genes: genes}, nil
}

// FromGenes builds a genome holding a copy of genes.
func FromGenes(genes []Gene) (*Genome, error) {
	if len(genes) < 1 {
		return nil, fmt.Errorf("%w: length=%d", ErrGeneCount, len(genes))
	}
	for i, g := range genes {
		if !g.Valid() {
			return nil, fmt.Errorf("%w: index=%d value=%d", ErrInvalidGene, i, g)
		}
	}
	return &Genome{genes: append([]Gene(nil), genes...)}, nil
}

func (g *Genome) Len() int {
	return len(g.genes)
}

func (g *Genome) Gene(i int) (Gene, error) {
	if i < 0 || i >= len(g.genes) {
		return 0, fmt.Errorf("%w: index=%d len=%d", ErrIndexOutOfRange, i, len(g.genes))
	}
	return g.genes[i], nil
}

// At is Gene without the bounds report; i must be in [0,Len()).
func (g *Genome) At(i int) Gene {
	return g.genes[i]
}

func (g *Genome) SetGene(i int, gene Gene) error {
	if i < 0 || i >= len(g.genes) {
		return fmt.Errorf("%w: index=%d len=%d", ErrIndexOutOfRange, i, len(g.genes))
	}
	if !gene.Valid() {
		return fmt.Errorf("%w: value=%d", ErrInvalidGene, gene)
	}
	g.genes[i] = gene
	return nil
}

// Genes returns a copy of the gene sequence.
func (g *Genome) Genes() []Gene {
	return append([]Gene(nil), g.genes...)
}

// Mutate draws an event count in [1, Len] and flips one uniformly chosen
// position per event. Positions may repeat, so two events on the same index
// cancel out.
func (g *Genome) Mutate(rng *rand.Rand) error {
	if rng == nil {
		return ErrNilRandom
	}
	events := rng.Intn(len(g.genes)) + 1
	for i := 0; i < events; i++ {
		pos := rng.Intn(len(g.genes))
		g.genes[pos] = g.genes[pos].Flip()
	}
	return nil
}

// CopyFrom overwrites g with the genes of src. Both genomes must have the
// same length; no storage is reallocated.
func (g *Genome) CopyFrom(src *Genome) error {
	if src == nil {
		return errors.New("source genome is required")
	}
	if len(src.genes) != len(g.genes) {
		return fmt.Errorf("%w: dst=%d src=%d", ErrLengthMismatch, len(g.genes), len(src.genes))
	}
	copy(g.genes, src.genes)
	return nil
}

// Equal reports whether both genomes hold the same genes.
func (g *Genome) Equal(other *Genome) bool {
	if other == nil || len(g.genes) != len(other.genes) {
		return false
	}
	for i := range g.genes {
		if g.genes[i] != other.genes[i] {
			return false
		}
	}
	return true
}

func randomGene(rng *rand.Rand) Gene {
	if rng.Intn(2) == 0 {
		return Negative
	}
	return Positive
}
