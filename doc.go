/*
Package mrpt implements the MRPT approximate nearest-neighbor index: an
ensemble of random-projection trees (RP-trees) with a voting query path
and an auto-tuner that picks index parameters to meet a target recall at
minimum expected query latency.

# Overview

A Forest is grown from a column-major data matrix by projecting every
point through a shared random projection pool and recursively splitting
on the median at each tree level. A query is routed to one leaf per
tree; points are "elected" once they accumulate enough leaf votes across
trees, and only the elected set is ranked exactly by squared Euclidean
distance.

# Quick Start

	package main

	import (
	    "fmt"
	    "log"

	    "github.com/cmykhal/mrpt"
	)

	func main() {
	    data := mrpt.NewDenseMatrix(dim, n, columns)

	    forest := mrpt.NewForest(data)
	    if err := forest.Grow(mrpt.GrowParams{NTrees: 10, Depth: 6, Density: 1, Seed: 42}); err != nil {
	        log.Fatal(err)
	    }

	    result, err := forest.NewSearch().WithK(10).WithVotesRequired(2).Execute(query)
	    if err != nil {
	        log.Fatal(err)
	    }
	    for _, n := range result.Neighbors {
	        fmt.Println(n.Index, n.Distance)
	    }
	}

# Auto-tuning

Autotune profiles the forest against a held-out query set and an exact
ground truth, fits latency models for projection, voting and exact
ranking, and exposes a Pareto frontier of (trees, depth, votes)
configurations. Subset trims a profiled Forest down to the cheapest
configuration that meets a target recall.

# Scope

This package implements only the RP-tree forest, its voting query path,
and the auto-tuner. It does not parse CLI flags, load datasets from
disk, compute ground-truth benchmark reports, or depend on any specific
linear-algebra library — callers supply data through the DataMatrix and
QueryMatrix interfaces.
*/
package mrpt
