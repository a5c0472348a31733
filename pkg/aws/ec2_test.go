package aws_test

import (
	"context"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minefleet/spindle/internal/models"
	"github.com/minefleet/spindle/pkg/aws"
)

type fakeEC2 struct {
	describeOut   *ec2.DescribeInstancesOutput
	describeErr   error
	describeCalls int

	startInputs []*ec2.StartInstancesInput
	startErrs   []error
	stopInputs  []*ec2.StopInstancesInput
	stopErrs    []error
}

func (f *fakeEC2) DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	f.describeCalls++
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return f.describeOut, nil
}

func (f *fakeEC2) StartInstances(ctx context.Context, params *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error) {
	f.startInputs = append(f.startInputs, params)
	if len(f.startErrs) > 0 {
		err := f.startErrs[0]
		f.startErrs = f.startErrs[1:]
		return nil, err
	}
	return &ec2.StartInstancesOutput{}, nil
}

func (f *fakeEC2) StopInstances(ctx context.Context, params *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error) {
	f.stopInputs = append(f.stopInputs, params)
	if len(f.stopErrs) > 0 {
		err := f.stopErrs[0]
		f.stopErrs = f.stopErrs[1:]
		return nil, err
	}
	return &ec2.StopInstancesOutput{}, nil
}

func describeOutput(instances ...types.Instance) *ec2.DescribeInstancesOutput {
	return &ec2.DescribeInstancesOutput{
		Reservations: []types.Reservation{
			{Instances: instances},
		},
	}
}

func runningInstance(id string) types.Instance {
	launch := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return types.Instance{
		InstanceId:      awssdk.String(id),
		InstanceType:    types.InstanceTypeT3Medium,
		PublicIpAddress: awssdk.String("203.0.113.7"),
		LaunchTime:      awssdk.Time(launch),
		State: &types.InstanceState{
			Code: awssdk.Int32(models.StateCodeRunning),
		},
		Placement: &types.Placement{
			AvailabilityZone: awssdk.String("us-east-1a"),
		},
		Tags: []types.Tag{
			{Key: awssdk.String("Name"), Value: awssdk.String("mc-server")},
		},
	}
}

// dryRunOK is what the API returns when a dry run would have succeeded
func dryRunOK() error {
	return &smithy.GenericAPIError{Code: "DryRunOperation", Message: "Request would have succeeded"}
}

func TestDescribeInstance(t *testing.T) {
	t.Parallel()

	fake := &fakeEC2{describeOut: describeOutput(runningInstance("i-abc"))}
	client := aws.NewEC2ClientFromAPI(fake, "us-east-1")
	require.NoError(t, client.ResolveInstance(context.Background(), "i-abc", ""))

	instance, err := client.DescribeInstance(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "i-abc", instance.InstanceID)
	assert.Equal(t, "mc-server", instance.Name)
	assert.Equal(t, "t3.medium", instance.InstanceType)
	assert.Equal(t, "us-east-1", instance.Region)
	assert.Equal(t, "us-east-1a", instance.AvailabilityZone)
	assert.Equal(t, models.StateRunning, instance.State)
	assert.Equal(t, "203.0.113.7", instance.PublicIP)
	assert.False(t, instance.LaunchTime.IsZero())
}

func TestDescribeInstanceStoppedHasNoIP(t *testing.T) {
	t.Parallel()

	stopped := types.Instance{
		InstanceId: awssdk.String("i-abc"),
		State: &types.InstanceState{
			Code: awssdk.Int32(models.StateCodeStopped),
		},
	}
	fake := &fakeEC2{describeOut: describeOutput(stopped)}
	client := aws.NewEC2ClientFromAPI(fake, "us-east-1")
	require.NoError(t, client.ResolveInstance(context.Background(), "i-abc", ""))

	instance, err := client.DescribeInstance(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.StateStopped, instance.State)
	assert.Empty(t, instance.PublicIP)
}

func TestResolveInstanceExplicitID(t *testing.T) {
	t.Parallel()

	fake := &fakeEC2{}
	client := aws.NewEC2ClientFromAPI(fake, "us-east-1")

	require.NoError(t, client.ResolveInstance(context.Background(), "i-explicit", ""))
	assert.Equal(t, "i-explicit", client.InstanceID())
	assert.Zero(t, fake.describeCalls, "explicit ID needs no lookup")
}

func TestResolveInstanceSkipsTerminated(t *testing.T) {
	t.Parallel()

	terminated := types.Instance{
		InstanceId: awssdk.String("i-dead"),
		State:      &types.InstanceState{Code: awssdk.Int32(models.StateCodeTerminated)},
	}
	stopped := types.Instance{
		InstanceId: awssdk.String("i-alive"),
		State:      &types.InstanceState{Code: awssdk.Int32(models.StateCodeStopped)},
	}
	fake := &fakeEC2{describeOut: describeOutput(terminated, stopped)}
	client := aws.NewEC2ClientFromAPI(fake, "us-east-1")

	require.NoError(t, client.ResolveInstance(context.Background(), "", ""))
	assert.Equal(t, "i-alive", client.InstanceID())
}

func TestResolveInstanceTagFilter(t *testing.T) {
	t.Parallel()

	fake := &fakeEC2{describeOut: describeOutput(runningInstance("i-tagged"))}
	client := aws.NewEC2ClientFromAPI(fake, "us-east-1")

	require.NoError(t, client.ResolveInstance(context.Background(), "", "role=minecraft"))
	assert.Equal(t, "i-tagged", client.InstanceID())
}

func TestResolveInstanceBadTagFilter(t *testing.T) {
	t.Parallel()

	client := aws.NewEC2ClientFromAPI(&fakeEC2{}, "us-east-1")

	err := client.ResolveInstance(context.Background(), "", "minecraft")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key=value")
}

func TestResolveInstanceNoneFound(t *testing.T) {
	t.Parallel()

	fake := &fakeEC2{describeOut: &ec2.DescribeInstancesOutput{}}
	client := aws.NewEC2ClientFromAPI(fake, "us-east-1")

	err := client.ResolveInstance(context.Background(), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable EC2 instance")
}

// TestStartInstanceDryRunPreflight verifies the dry run happens first and the
// expected DryRunOperation error is not treated as a failure.
func TestStartInstanceDryRunPreflight(t *testing.T) {
	t.Parallel()

	fake := &fakeEC2{startErrs: []error{dryRunOK()}}
	client := aws.NewEC2ClientFromAPI(fake, "us-east-1")
	require.NoError(t, client.ResolveInstance(context.Background(), "i-abc", ""))

	require.NoError(t, client.StartInstance(context.Background()))

	require.Len(t, fake.startInputs, 2)
	assert.True(t, awssdk.ToBool(fake.startInputs[0].DryRun), "first call must be a dry run")
	assert.Nil(t, fake.startInputs[1].DryRun, "second call is the real one")
}

// TestStartInstanceDryRunDenied verifies a real dry-run failure aborts before
// the mutating call.
func TestStartInstanceDryRunDenied(t *testing.T) {
	t.Parallel()

	denied := &smithy.GenericAPIError{Code: "UnauthorizedOperation", Message: "not allowed"}
	fake := &fakeEC2{startErrs: []error{denied}}
	client := aws.NewEC2ClientFromAPI(fake, "us-east-1")
	require.NoError(t, client.ResolveInstance(context.Background(), "i-abc", ""))

	err := client.StartInstance(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dry run failed")
	assert.Len(t, fake.startInputs, 1, "mutating call must not happen")
}

func TestStopInstanceDryRunPreflight(t *testing.T) {
	t.Parallel()

	fake := &fakeEC2{stopErrs: []error{dryRunOK()}}
	client := aws.NewEC2ClientFromAPI(fake, "us-east-1")
	require.NoError(t, client.ResolveInstance(context.Background(), "i-abc", ""))

	require.NoError(t, client.StopInstance(context.Background()))

	require.Len(t, fake.stopInputs, 2)
	assert.True(t, awssdk.ToBool(fake.stopInputs[0].DryRun))
	assert.Nil(t, fake.stopInputs[1].DryRun)
}
