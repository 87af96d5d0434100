package planning

import "strings"

// DomainExpertise describes how available the expertise a task requires is
// within the organization (spec §4.4 "Feasibility assessment").
type DomainExpertise struct {
	Level               int    `json:"level"` // 1 (common) .. 5 (rare specialist)
	InternallyAvailable bool   `json:"internally_available"`
	AcquisitionWeeks    int    `json:"acquisition_weeks"`
	Domain              string `json:"domain"`
}

// ComplexityMetrics estimates the shape of the work, used only to weight
// the feasibility score, not to gate acceptance criteria.
type ComplexityMetrics struct {
	Cyclomatic        int     `json:"cyclomatic"`
	IntegrationPoints int     `json:"integration_points"`
	DataComplexity    int     `json:"data_complexity"`
	AlgorithmicClass  string  `json:"algorithmic_class"` // e.g. "linear", "np-hard"
	TestingFactor     float64 `json:"testing_factor"`
}

// lightSpeedRTTLowerBoundMillis is the physical floor for a single
// cross-continental network round trip, used to flag impossible latency
// targets (spec §4.4 "theoretical bounds vs. requested").
const lightSpeedRTTLowerBoundMillis = 1.0

// cpuTheoreticalMops and cpuPracticalMops bound throughput feasibility.
const (
	cpuTheoreticalMops = 100.0
	cpuPracticalMops   = 10.0
)

// PerformanceAnalysis compares requested targets to theoretical bounds.
type PerformanceAnalysis struct {
	RequestedLatencyMS     float64 `json:"requested_latency_ms,omitempty"`
	RequestedThroughputOPS float64 `json:"requested_throughput_ops,omitempty"`
	RequestedMemoryMB      float64 `json:"requested_memory_mb,omitempty"`
	RequestedNetworkMbps   float64 `json:"requested_network_mbps,omitempty"`
	LatencyFeasible        bool    `json:"latency_feasible"`
	ThroughputFeasible     bool    `json:"throughput_feasible"`
}

// ResourceValidation flags impossible hardware/platform constraints named
// in the task text.
type ResourceValidation struct {
	ImpossibleConstraints []string `json:"impossible_constraints,omitempty"`
}

// FeasibilityTier is the recommended path forward given the score.
type FeasibilityTier string

const (
	TierReconsiderRequirements FeasibilityTier = "reconsider-requirements"
	TierPrototypeFirst         FeasibilityTier = "prototype-first"
	TierPhased                 FeasibilityTier = "phased"
	TierDirect                 FeasibilityTier = "direct"
)

// RiskReport is assess_risks' full output (spec §4.4 public contract).
type RiskReport struct {
	DomainExpertise    DomainExpertise     `json:"domain_expertise"`
	Complexity         ComplexityMetrics   `json:"complexity"`
	Performance        PerformanceAnalysis `json:"performance"`
	Resources          ResourceValidation  `json:"resources"`
	FeasibilityScore   float64             `json:"feasibility_score"`
	Recommendation     FeasibilityTier     `json:"recommendation"`
}

// AssessRisks implements assess_risks(task_text) → RiskReport (spec §4.4).
func AssessRisks(taskText string) RiskReport {
	lower := strings.ToLower(taskText)

	expertise := classifyExpertise(lower)
	complexity := estimateComplexity(lower)
	perf := analyzePerformance(lower)
	resources := validateResources(lower)

	score := feasibilityScore(expertise, complexity, perf, resources)

	return RiskReport{
		DomainExpertise:  expertise,
		Complexity:       complexity,
		Performance:      perf,
		Resources:        resources,
		FeasibilityScore: score,
		Recommendation:   recommendTier(score),
	}
}

func classifyExpertise(lower string) DomainExpertise {
	rareDomains := map[string]int{
		"quantum":        5,
		"cryptographic":  4,
		"cryptography":   4,
		"distributed consensus": 5,
		"real-time":      3,
	}
	for domain, level := range rareDomains {
		if strings.Contains(lower, domain) {
			return DomainExpertise{
				Level:               level,
				InternallyAvailable: level <= 2,
				AcquisitionWeeks:    level * 3,
				Domain:              domain,
			}
		}
	}
	return DomainExpertise{Level: 1, InternallyAvailable: true, AcquisitionWeeks: 0, Domain: "general"}
}

func estimateComplexity(lower string) ComplexityMetrics {
	integrationPoints := strings.Count(lower, "integrate") + strings.Count(lower, "api") + strings.Count(lower, "service")
	dataComplexity := strings.Count(lower, "schema") + strings.Count(lower, "migration") + strings.Count(lower, "database")

	class := "linear"
	switch {
	case strings.Contains(lower, "optimal") || strings.Contains(lower, "exhaustive search"):
		class = "np-hard"
	case strings.Contains(lower, "sort") || strings.Contains(lower, "graph"):
		class = "linearithmic"
	}

	cyclomatic := 1 + integrationPoints + dataComplexity
	testingFactor := 1.0 + float64(dataComplexity)*0.2

	return ComplexityMetrics{
		Cyclomatic:        cyclomatic,
		IntegrationPoints: integrationPoints,
		DataComplexity:    dataComplexity,
		AlgorithmicClass:  class,
		TestingFactor:     testingFactor,
	}
}

func analyzePerformance(lower string) PerformanceAnalysis {
	var out PerformanceAnalysis
	if hasSubMicrosecondTarget(lower) {
		out.RequestedLatencyMS = 0.001
		out.LatencyFeasible = out.RequestedLatencyMS >= lightSpeedRTTLowerBoundMillis
	} else {
		out.LatencyFeasible = true
	}
	out.ThroughputFeasible = true
	if strings.Contains(lower, "million requests per second") || strings.Contains(lower, "billion requests per second") {
		out.RequestedThroughputOPS = 1e9
		out.ThroughputFeasible = out.RequestedThroughputOPS/1e6 <= cpuTheoreticalMops
	}
	return out
}

func validateResources(lower string) ResourceValidation {
	var out ResourceValidation
	for _, p := range impossibleResourcePhrases {
		if strings.Contains(lower, p) {
			out.ImpossibleConstraints = append(out.ImpossibleConstraints, p)
		}
	}
	return out
}

// feasibilityScore weights the four inputs into a single 0..1 figure (spec
// §4.4 "weighted combination"). Expertise and resource constraints dominate
// because they are binary blockers; complexity and performance contribute
// smaller penalties.
func feasibilityScore(e DomainExpertise, c ComplexityMetrics, p PerformanceAnalysis, r ResourceValidation) float64 {
	score := 1.0

	if !e.InternallyAvailable {
		score -= 0.15 * float64(e.Level)
	}
	if c.Cyclomatic > 10 {
		score -= 0.1
	}
	if !p.LatencyFeasible || !p.ThroughputFeasible {
		score -= 0.4
	}
	if len(r.ImpossibleConstraints) > 0 {
		score -= 0.75
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

func recommendTier(score float64) FeasibilityTier {
	switch {
	case score < 0.3:
		return TierReconsiderRequirements
	case score < 0.6:
		return TierPrototypeFirst
	case score < 0.8:
		return TierPhased
	default:
		return TierDirect
	}
}
