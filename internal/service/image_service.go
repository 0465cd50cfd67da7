package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	_ "image/jpeg"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	defaultImageModel = "gpt-image-1"
	defaultImageSize  = "1536x1024"
	maxHeroWidth      = 1600
)

// ErrImageEmpty 表示图像接口没有返回任何数据。
var ErrImageEmpty = errors.New("image model returned no data")

// AIImageService generates hero images and uploads them to the CMS
// asset store. The whole pipeline is best-effort: callers treat a
// failure here as "no image", never as a failed draft.
type AIImageService struct {
	http     httpDoer
	apiKey   string
	baseURL  string
	model    string
	uploader AssetUploader
}

// NewAIImageService 构造默认的 AIImageService。
func NewAIImageService(apiKey, baseURL, model string, uploader AssetUploader) *AIImageService {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	if strings.TrimSpace(model) == "" {
		model = defaultImageModel
	}
	return &AIImageService{
		http:     &http.Client{Timeout: 180 * time.Second},
		apiKey:   strings.TrimSpace(apiKey),
		baseURL:  base,
		model:    model,
		uploader: uploader,
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (s *AIImageService) SetHTTPClient(client httpDoer) {
	if client == nil {
		s.http = &http.Client{Timeout: 180 * time.Second}
		return
	}
	s.http = client
}

type imageGenerationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateHero renders an abstract hero illustration for the given
// title, downscales it and uploads it as a CMS asset. Returns the
// asset reference id.
func (s *AIImageService) GenerateHero(ctx context.Context, title string) (string, error) {
	if s.apiKey == "" {
		return "", ErrAIAPIKeyMissing
	}

	prompt := fmt.Sprintf("Minimal abstract editorial illustration for an article titled %q. Muted blues and greys, geometric shapes, no text, no people.", title)
	data, err := s.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	scaled, err := downscaleImage(data, maxHeroWidth)
	if err != nil {
		// keep the original bytes when decoding fails; the CMS accepts
		// them as-is
		scaled = data
	}

	filename := fmt.Sprintf("hero-%s.png", uuid.NewString()[:8])
	assetID, _, err := s.uploader.UploadAsset(ctx, scaled, filename, "image/png")
	if err != nil {
		return "", fmt.Errorf("upload hero image: %w", err)
	}
	return assetID, nil
}

func (s *AIImageService) generate(ctx context.Context, prompt string) ([]byte, error) {
	payload, err := json.Marshal(map[string]any{
		"model":  s.model,
		"prompt": prompt,
		"size":   defaultImageSize,
		"n":      1,
	})
	if err != nil {
		return nil, fmt.Errorf("encode image request: %w", err)
	}

	endpoint := s.baseURL + "/images/generations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	client := s.http
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call image generation: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read image response: %w", err)
	}

	var generation imageGenerationResponse
	if err := json.Unmarshal(respBody, &generation); err != nil {
		return nil, fmt.Errorf("decode image response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		errMsg := strings.TrimSpace(generation.Error.Message)
		if errMsg == "" {
			errMsg = resp.Status
		}
		return nil, fmt.Errorf("image generation returned an error: %s", errMsg)
	}
	if len(generation.Data) == 0 || generation.Data[0].B64JSON == "" {
		return nil, ErrImageEmpty
	}

	data, err := base64.StdEncoding.DecodeString(generation.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return data, nil
}

// downscaleImage resizes the image to maxWidth when it is wider,
// preserving the aspect ratio. Images at or below the limit pass
// through untouched.
func downscaleImage(data []byte, maxWidth int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() <= maxWidth {
		return data, nil
	}

	height := bounds.Dy() * maxWidth / bounds.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
