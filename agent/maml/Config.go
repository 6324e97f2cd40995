package maml

import "fmt"

// Default configuration values
const (
	DefaultAdaptSteps       int     = 1
	DefaultCGIters          int     = 10
	DefaultCGResidualTol    float64 = 1e-10
	DefaultLSMaxSteps       int     = 10
	DefaultLSBacktrackRatio float64 = 0.5
)

// Config implements a configuration for a MAML meta-learner
type Config struct {
	// MetaBatchSize is the number of tasks sampled from the task
	// family each meta-iteration
	MetaBatchSize int

	// EpisodesPerTask is the number of episodes collected per task
	// both before and after adaptation
	EpisodesPerTask int

	// Gamma is the reward discount rate and Tau the generalized
	// advantage estimation decay rate
	Gamma float64
	Tau   float64

	// FastLR is the learning rate for the inner adaptation steps and
	// AdaptSteps the number of such steps per task
	FastLR     float64
	AdaptSteps int

	// FirstOrder determines whether gradients of the adaptation map
	// are approximated by the identity. When false, the full map is
	// differentiated through each inner step.
	FirstOrder bool

	// MaxKL is the trust region radius on the mean KL divergence
	// between pre-update and post-update policies
	MaxKL float64

	// CGIters is the number of conjugate gradient iterations used to
	// compute the natural gradient direction, CGDamping the Fisher
	// matrix damping coefficient, and CGResidualTol the residual
	// magnitude below which conjugate gradient stops early
	CGIters       int
	CGDamping     float64
	CGResidualTol float64

	// LSMaxSteps is the number of backtracking line search steps and
	// LSBacktrackRatio the factor by which the step size shrinks on
	// each backtrack
	LSMaxSteps       int
	LSBacktrackRatio float64

	// NormalizeAdvantages determines whether advantages are
	// standardized per task batch before use
	NormalizeAdvantages bool

	// Workers is the number of concurrent episode sampling workers
	Workers int
}

// Validate returns an error describing the first invalid field of the
// configuration, filling in defaults for fields left at their zero
// value where a sensible default exists.
func (c *Config) Validate() error {
	if c.MetaBatchSize <= 0 {
		return fmt.Errorf("validate: meta batch size must be positive")
	}
	if c.EpisodesPerTask <= 0 {
		return fmt.Errorf("validate: episodes per task must be positive")
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: gamma must be in [0, 1]")
	}
	if c.Tau < 0 || c.Tau > 1 {
		return fmt.Errorf("validate: tau must be in [0, 1]")
	}
	if c.FastLR <= 0 {
		return fmt.Errorf("validate: fast learning rate must be positive")
	}
	if c.AdaptSteps == 0 {
		c.AdaptSteps = DefaultAdaptSteps
	}
	if c.AdaptSteps < 0 {
		return fmt.Errorf("validate: adaptation steps must be positive")
	}
	if c.MaxKL < 0 {
		return fmt.Errorf("validate: max KL must be non-negative")
	}
	if c.CGIters == 0 {
		c.CGIters = DefaultCGIters
	}
	if c.CGIters < 0 {
		return fmt.Errorf("validate: conjugate gradient iterations must " +
			"be positive")
	}
	if c.CGDamping < 0 {
		return fmt.Errorf("validate: conjugate gradient damping must be " +
			"non-negative")
	}
	if c.CGResidualTol == 0 {
		c.CGResidualTol = DefaultCGResidualTol
	}
	if c.LSMaxSteps == 0 {
		c.LSMaxSteps = DefaultLSMaxSteps
	}
	if c.LSMaxSteps < 0 {
		return fmt.Errorf("validate: line search steps must be positive")
	}
	if c.LSBacktrackRatio == 0 {
		c.LSBacktrackRatio = DefaultLSBacktrackRatio
	}
	if c.LSBacktrackRatio <= 0 || c.LSBacktrackRatio >= 1 {
		return fmt.Errorf("validate: backtrack ratio must be in (0, 1)")
	}
	if c.Workers < 0 {
		return fmt.Errorf("validate: workers must be non-negative")
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	return nil
}
