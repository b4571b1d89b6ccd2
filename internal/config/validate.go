package config

import (
	"errors"
	"fmt"
	"net"

	"docmatch/internal/variance"
)

// Validate ensures the configuration is usable and caches the variance
// policy it describes.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	policy, err := variance.Validate(c.variancePolicy())
	if err != nil {
		return err
	}
	c.policy = policy
	return nil
}

func (c *Config) variancePolicy() variance.Policy {
	return variance.Policy{
		LineItemMatchThreshold: c.Variance.LineItemMatchThreshold,
		Quantity:               variance.Tolerance{Kind: variance.Kind(c.Variance.QuantityKind), Value: c.Variance.QuantityTolerance},
		UnitPrice:              variance.Tolerance{Kind: variance.Kind(c.Variance.UnitPriceKind), Value: c.Variance.UnitPriceTolerance},
		TotalAmount:            variance.Tolerance{Kind: variance.Kind(c.Variance.TotalAmountKind), Value: c.Variance.TotalAmountTolerance},
	}
}

func (c *Config) validateAPI() error {
	if _, _, err := net.SplitHostPort(c.API.Bind); err != nil {
		return fmt.Errorf("api.bind: %w", err)
	}
	return nil
}

func (c *Config) validateQueue() error {
	if c.Queue.PageSize <= 0 {
		return errors.New("queue.page_size must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.Workers <= 0 {
		return errors.New("workflow.workers must be positive")
	}
	if c.Workflow.PollInterval <= 0 {
		return errors.New("workflow.poll_interval must be positive")
	}
	return nil
}
