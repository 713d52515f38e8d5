package services

import (
	"context"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// VisionService tags meal photos with Rekognition labels. Purely best-effort:
// analysis works without it, the labels just enrich the stored result.
type VisionService struct {
	client *rekognition.Client
}

func NewVisionService() (*VisionService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		return nil, err
	}
	return &VisionService{client: rekognition.NewFromConfig(cfg)}, nil
}

// DetectLabels returns the top labels for raw image bytes.
func (v *VisionService) DetectLabels(ctx context.Context, image []byte) ([]string, error) {
	out, err := v.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(5),
		MinConfidence: aws.Float32(75),
	})
	if err != nil {
		return nil, err
	}

	var labels []string
	for _, l := range out.Labels {
		if l.Name != nil {
			labels = append(labels, *l.Name)
		}
	}
	return labels, nil
}
