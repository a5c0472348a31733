package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwTypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// MetricsClient reads CloudWatch metrics for the managed instance
type MetricsClient struct {
	client *cloudwatch.Client
	region string
}

// NewMetricsClient creates a new MetricsClient
func NewMetricsClient(ctx context.Context, region string) (*MetricsClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	return &MetricsClient{
		client: cloudwatch.NewFromConfig(cfg),
		region: region,
	}, nil
}

// GetAverageCPU returns the average CPUUtilization (percent) of the instance
// over the given window. A window with no datapoints returns 0 and no error;
// the instance may have just started or CloudWatch may lag.
func (m *MetricsClient) GetAverageCPU(ctx context.Context, instanceID string, window time.Duration) (float64, error) {
	now := time.Now()

	input := &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String("AWS/EC2"),
		MetricName: aws.String("CPUUtilization"),
		Dimensions: []cwTypes.Dimension{
			{
				Name:  aws.String("InstanceId"),
				Value: aws.String(instanceID),
			},
		},
		StartTime:  aws.Time(now.Add(-window)),
		EndTime:    aws.Time(now),
		Period:     aws.Int32(int32(window.Seconds())),
		Statistics: []cwTypes.Statistic{cwTypes.StatisticAverage},
	}

	resp, err := m.client.GetMetricStatistics(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("failed to get CPUUtilization for %s: %w", instanceID, err)
	}

	if len(resp.Datapoints) == 0 {
		return 0, nil
	}

	dp := resp.Datapoints[0]
	if dp.Average == nil {
		return 0, nil
	}

	return *dp.Average, nil
}
