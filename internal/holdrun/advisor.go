package holdrun

import "time"

// Resource hint thresholds for the advisor modifiers.
const (
	lowMemoryMB       = 2048
	highMemoryMB      = 8192
	lowBandwidthMbps  = 50
	lowBandwidthDelay = 500 * time.Millisecond

	maxBatchSize   = 2000
	minBatchSize   = 50
	maxConcurrency = 25
	minConcurrency = 2
)

// Advice is the advisor's recommendation for a run. Deterministic output
// of Advise; callers may override individual values via flags or config.
type Advice struct {
	BatchSize         int
	Concurrency       int
	CleanupInterval   int
	ThrottleDelay     time.Duration
	RecommendedWindow string
	Warnings          []string
}

// scaleTier is one rung of the environment-size ladder. Tiers are evaluated
// low to high; the first tier whose Below bound exceeds the total wins.
type scaleTier struct {
	Below       int // exclusive upper bound on total mailboxes; 0 = unbounded
	BatchSize   int
	Concurrency int
}

var scaleLadder = []scaleTier{
	{Below: 1_000, BatchSize: 100, Concurrency: 5},
	{Below: 10_000, BatchSize: 250, Concurrency: 8},
	{Below: 50_000, BatchSize: 500, Concurrency: 10},
	{Below: 100_000, BatchSize: 750, Concurrency: 15},
	{Below: 0, BatchSize: 1000, Concurrency: 20},
}

// Advise returns batch and concurrency settings scaled to the environment.
// total is the mailbox population size; memoryMB and bandwidthMbps are
// resource hints (0 = unknown, no modifier applied). Pure function, no
// side effects.
func Advise(total, memoryMB, bandwidthMbps int) Advice {
	a := Advice{
		CleanupInterval:   10,
		RecommendedWindow: "any",
	}

	for _, tier := range scaleLadder {
		if tier.Below == 0 || total < tier.Below {
			a.BatchSize = tier.BatchSize
			a.Concurrency = tier.Concurrency

			break
		}
	}

	if total >= 100_000 {
		a.CleanupInterval = 5
		a.RecommendedWindow = "off-peak"
		a.Warnings = append(a.Warnings,
			"large environment, schedule the run for an off-peak window")
	}

	// Modifiers compose: memory first, then bandwidth.
	if memoryMB > 0 && memoryMB < lowMemoryMB {
		a.BatchSize = max(a.BatchSize/2, minBatchSize)
		a.Concurrency = max(a.Concurrency/2, minConcurrency)
		a.Warnings = append(a.Warnings,
			"low memory, batch size and concurrency halved")
	} else if memoryMB > highMemoryMB {
		a.BatchSize = min(a.BatchSize*3/2, maxBatchSize)
		a.Concurrency = min(a.Concurrency*3/2, maxConcurrency)
	}

	if bandwidthMbps > 0 && bandwidthMbps < lowBandwidthMbps {
		a.ThrottleDelay = lowBandwidthDelay
		a.Concurrency = max(a.Concurrency*7/10, minConcurrency)
		a.Warnings = append(a.Warnings,
			"low bandwidth, throttling enabled and concurrency reduced")
	}

	return a
}
