package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"

	"github.com/minefleet/spindle/internal/models"
	"github.com/minefleet/spindle/pkg/utils"
)

// dryRunOperationCode is the API error code returned when a dry-run call
// would have succeeded.
const dryRunOperationCode = "DryRunOperation"

// EC2API is the slice of the EC2 service client used by spindle
type EC2API interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	StartInstances(ctx context.Context, params *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error)
	StopInstances(ctx context.Context, params *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error)
}

// EC2Client manages the lifecycle of a single EC2 instance
type EC2Client struct {
	api        EC2API
	region     string
	instanceID string
}

// NewEC2Client creates a new EC2Client
func NewEC2Client(ctx context.Context, region string) (*EC2Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithRetryMode(aws.RetryModeStandard),
		config.WithEC2IMDSClientEnableState(imds.ClientEnabled),
	)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	return &EC2Client{
		api:    ec2.NewFromConfig(cfg),
		region: region,
	}, nil
}

// NewEC2ClientFromAPI creates an EC2Client on an existing API client.
// Used by tests to substitute a fake provider.
func NewEC2ClientFromAPI(api EC2API, region string) *EC2Client {
	return &EC2Client{api: api, region: region}
}

// InstanceID returns the resolved instance ID
func (c *EC2Client) InstanceID() string {
	return c.instanceID
}

// Region returns the region the client operates in
func (c *EC2Client) Region() string {
	return c.region
}

// ResolveInstance binds the client to a single instance. An explicit ID wins;
// otherwise a "key=value" tag filter is tried; otherwise the first
// non-terminated instance in the region is used.
func (c *EC2Client) ResolveInstance(ctx context.Context, instanceID, tagFilter string) error {
	if instanceID != "" {
		c.instanceID = instanceID
		return nil
	}

	input := &ec2.DescribeInstancesInput{}
	if tagFilter != "" {
		key, value, ok := strings.Cut(tagFilter, "=")
		if !ok {
			return fmt.Errorf("invalid tag filter %q, expected key=value", tagFilter)
		}
		input.Filters = []types.Filter{
			{
				Name:   aws.String("tag:" + key),
				Values: []string{value},
			},
		}
	}

	result, err := c.api.DescribeInstances(ctx, input)
	if err != nil {
		return fmt.Errorf("error querying EC2 instances: %w", err)
	}

	for _, reservation := range result.Reservations {
		for _, instance := range reservation.Instances {
			if instance.State != nil && instance.State.Code != nil &&
				models.StateFromCode(*instance.State.Code) == models.StateTerminated {
				continue
			}
			c.instanceID = utils.SafeDeref(instance.InstanceId)
			return nil
		}
	}

	return fmt.Errorf("no usable EC2 instance found in %s", c.region)
}

// DescribeInstance returns the current snapshot of the managed instance
func (c *EC2Client) DescribeInstance(ctx context.Context) (models.Instance, error) {
	if c.instanceID == "" {
		return models.Instance{}, fmt.Errorf("no instance resolved")
	}

	input := &ec2.DescribeInstancesInput{
		InstanceIds: []string{c.instanceID},
	}

	result, err := c.api.DescribeInstances(ctx, input)
	if err != nil {
		return models.Instance{}, fmt.Errorf("error describing instance %s: %w", c.instanceID, err)
	}

	if len(result.Reservations) == 0 || len(result.Reservations[0].Instances) == 0 {
		return models.Instance{}, fmt.Errorf("instance %s not found", c.instanceID)
	}

	instance := result.Reservations[0].Instances[0]

	state := models.StateUnknown
	if instance.State != nil && instance.State.Code != nil {
		state = models.StateFromCode(*instance.State.Code)
	}

	info := models.Instance{
		InstanceID:   c.instanceID,
		Name:         utils.GetName(instance.Tags),
		InstanceType: string(instance.InstanceType),
		Region:       c.region,
		State:        state,
		PublicIP:     utils.SafeDeref(instance.PublicIpAddress),
		ObservedAt:   time.Now(),
	}
	if instance.Placement != nil {
		info.AvailabilityZone = utils.SafeDeref(instance.Placement.AvailabilityZone)
	}
	if instance.LaunchTime != nil {
		info.LaunchTime = *instance.LaunchTime
	}

	return info, nil
}

// StartInstance issues a start call for the managed instance.
// A dry run is performed first to verify permissions without side effects.
func (c *EC2Client) StartInstance(ctx context.Context) error {
	if c.instanceID == "" {
		return fmt.Errorf("no instance resolved")
	}

	_, err := c.api.StartInstances(ctx, &ec2.StartInstancesInput{
		InstanceIds: []string{c.instanceID},
		DryRun:      aws.Bool(true),
	})
	if err := checkDryRun(err); err != nil {
		return fmt.Errorf("start dry run failed for %s: %w", c.instanceID, err)
	}

	_, err = c.api.StartInstances(ctx, &ec2.StartInstancesInput{
		InstanceIds: []string{c.instanceID},
	})
	if err != nil {
		return fmt.Errorf("error starting instance %s: %w", c.instanceID, err)
	}

	return nil
}

// StopInstance issues a stop call for the managed instance, with the same
// dry-run preflight as StartInstance.
func (c *EC2Client) StopInstance(ctx context.Context) error {
	if c.instanceID == "" {
		return fmt.Errorf("no instance resolved")
	}

	_, err := c.api.StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{c.instanceID},
		DryRun:      aws.Bool(true),
	})
	if err := checkDryRun(err); err != nil {
		return fmt.Errorf("stop dry run failed for %s: %w", c.instanceID, err)
	}

	_, err = c.api.StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{c.instanceID},
	})
	if err != nil {
		return fmt.Errorf("error stopping instance %s: %w", c.instanceID, err)
	}

	return nil
}

// checkDryRun filters the expected DryRunOperation error. A dry run that
// would have succeeded still returns an error from the API; every other
// error is real.
func checkDryRun(err error) error {
	if err == nil {
		// The API always errors on a dry run, success included
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == dryRunOperationCode {
		return nil
	}

	return err
}
