package aws

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"

	"github.com/minefleet/spindle/pkg/utils"
)

// imdsTimeout bounds the metadata lookup so startup off EC2 does not hang
// waiting for a link-local endpoint that is not there.
const imdsTimeout = 2 * time.Second

// DetectRegion resolves the AWS region to use: explicit configuration wins,
// then the standard environment variables, then the instance metadata
// service when running on EC2, then the default region.
func DetectRegion(ctx context.Context, configured string) string {
	if configured != "" {
		return configured
	}

	for _, env := range []string{"AWS_REGION", "AWS_DEFAULT_REGION"} {
		if region := os.Getenv(env); region != "" {
			return region
		}
	}

	if region := regionFromIMDS(ctx); region != "" {
		return region
	}

	return utils.GetDefaultRegion()
}

// regionFromIMDS asks the EC2 instance metadata service for the local region
func regionFromIMDS(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, imdsTimeout)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return ""
	}

	client := imds.NewFromConfig(cfg)
	output, err := client.GetRegion(ctx, &imds.GetRegionInput{})
	if err != nil {
		return ""
	}

	return output.Region
}
