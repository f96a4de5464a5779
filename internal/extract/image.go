package extract

import (
	"bytes"
	"context"
	"image"

	"github.com/disintegration/imaging"

	"MediaScope/internal/domain"
	"MediaScope/internal/ports"
)

// classifierEdge bounds the longest side of frames sent for inference.
const classifierEdge = 512

// ImageExtractor decodes a single still image and classifies it once.
type ImageExtractor struct {
	classifier ports.Classifier
}

var _ ports.Extractor = (*ImageExtractor)(nil)

// NewImageExtractor wires the external classifier collaborator.
func NewImageExtractor(classifier ports.Classifier) *ImageExtractor {
	return &ImageExtractor{classifier: classifier}
}

// Family identifies the extractor inside the registry.
func (e *ImageExtractor) Family() domain.ContentFamily {
	return domain.FamilyImage
}

// Analyze decodes the resource exactly once and runs one inference call.
func (e *ImageExtractor) Analyze(ctx context.Context, res *domain.Resource, _ domain.Options) (*domain.Findings, error) {
	reader, err := res.Open()
	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, domain.StageExtract, "open resource", err)
	}
	defer reader.Close()

	img, err := imaging.Decode(reader, imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.WrapError(domain.CodeDecodeFailed, domain.StageExtract, "decode image", err)
	}

	payload, err := encodeForClassifier(img)
	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, domain.StageExtract, "encode frame", err)
	}

	predictions, err := e.classifier.ClassifyImage(ctx, payload)
	if err != nil {
		return nil, domain.WrapError(domain.CodeInferenceFailed, domain.StageExtract, "classify image", err)
	}

	return &domain.Findings{
		Family:         domain.FamilyImage,
		Image:          rankPredictions(predictions),
		UnitsProcessed: 1,
		UnitsTotal:     1,
	}, nil
}

// encodeForClassifier downsizes oversized frames and re-encodes to JPEG,
// the payload format the classifier contract expects.
func encodeForClassifier(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	if bounds.Dx() > classifierEdge || bounds.Dy() > classifierEdge {
		img = imaging.Fit(img, classifierEdge, classifierEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
