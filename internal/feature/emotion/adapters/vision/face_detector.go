// Package vision はGoogle Cloud Vision APIを使用した顔検出クライアントを提供します。
package vision

import (
	"context"
	"fmt"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"mindcare_backend/internal/feature/emotion/usecase"
)

// FaceDetector はGoogle Cloud Vision APIで画像内の顔を数えます。
type FaceDetector struct {
	client *gvision.ImageAnnotatorClient
}

// FaceDetectorがusecase.FaceDetectorを実装していることをコンパイル時に検証します。
var _ usecase.FaceDetector = (*FaceDetector)(nil)

// NewFaceDetector はADCを使用してFaceDetectorの新しいインスタンスを生成します。
func NewFaceDetector(ctx context.Context) (*FaceDetector, error) {
	client, err := gvision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &FaceDetector{client: client}, nil
}

// Close はVision APIクライアントを解放します。
func (v *FaceDetector) Close() error {
	return v.client.Close()
}

// CountFaces は画像バイト列から検出された顔の数を返します。
func (v *FaceDetector) CountFaces(ctx context.Context, imageData []byte) (int, error) {
	resp, err := v.client.BatchAnnotateImages(ctx, faceRequest(imageData))
	if err != nil {
		return 0, fmt.Errorf("vision API request failed: %w", err)
	}
	return countFaces(resp)
}

func faceRequest(imageData []byte) *visionpb.BatchAnnotateImagesRequest {
	return &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image:    &visionpb.Image{Content: imageData},
				Features: []*visionpb.Feature{{Type: visionpb.Feature_FACE_DETECTION, MaxResults: 5}},
			},
		},
	}
}

func countFaces(resp *visionpb.BatchAnnotateImagesResponse) (int, error) {
	if resp == nil || len(resp.Responses) == 0 {
		return 0, nil
	}
	if e := resp.Responses[0].Error; e != nil {
		return 0, fmt.Errorf("vision API error: %s", e.Message)
	}
	return len(resp.Responses[0].FaceAnnotations), nil
}
