package jsoncfg

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

type ArticleSettings struct {
	Language       string `json:"language"`
	Tone           string `json:"tone"`
	TargetAudience string `json:"targetAudience"`
	Length         string `json:"length"`
	Format         string `json:"format"`
}

type PromptConfig struct {
	Description string `json:"description"`
}

type ReferenceText struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

type ReferenceImage struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	DataURL  string `json:"dataUrl"`
}

// References are optional enrichments. Both lists may be empty but must be
// present in the payload.
type References struct {
	Texts  []ReferenceText  `json:"texts"`
	Images []ReferenceImage `json:"images"`
}

type ImageGenerationConfig struct {
	Enabled     bool   `json:"enabled"`
	Prompt      string `json:"prompt"`
	Style       string `json:"style"`
	AspectRatio string `json:"aspectRatio"`
	Count       int    `json:"count"`
}

// ArticleRequest is the canonical article generation contract. It is stored
// verbatim as the article's input snapshot.
type ArticleRequest struct {
	Article         ArticleSettings       `json:"article"`
	Prompt          PromptConfig          `json:"prompt"`
	References      References            `json:"references"`
	ImageGeneration ImageGenerationConfig `json:"imageGeneration"`
}

var (
	allowedLengths      = map[string]struct{}{"short": {}, "medium": {}, "long": {}}
	allowedFormats      = map[string]struct{}{"markdown": {}, "html": {}, "plain": {}}
	allowedAspectRatios = map[string]struct{}{"1:1": {}, "4:3": {}, "16:9": {}}
)

const (
	// DefaultArticleLength is applied when the request omits the length.
	DefaultArticleLength = "medium"
	// DefaultArticleFormat is applied when the request omits the format.
	DefaultArticleFormat = "markdown"
	// DefaultImageAspectRatio is used for cover images without an explicit ratio.
	DefaultImageAspectRatio = "16:9"
	// MaxImageCount caps the number of generated cover candidates.
	MaxImageCount = 4
)

// Normalize trims free text and fills server defaults for optional settings.
func (r *ArticleRequest) Normalize() {
	if r == nil {
		return
	}
	r.Article.Language = strings.TrimSpace(r.Article.Language)
	r.Article.Tone = strings.TrimSpace(r.Article.Tone)
	r.Article.TargetAudience = strings.TrimSpace(r.Article.TargetAudience)
	r.Article.Length = strings.ToLower(strings.TrimSpace(r.Article.Length))
	if r.Article.Length == "" {
		r.Article.Length = DefaultArticleLength
	}
	r.Article.Format = strings.ToLower(strings.TrimSpace(r.Article.Format))
	if r.Article.Format == "" {
		r.Article.Format = DefaultArticleFormat
	}
	r.Prompt.Description = strings.TrimSpace(r.Prompt.Description)
	if r.ImageGeneration.Enabled {
		if r.ImageGeneration.AspectRatio == "" {
			r.ImageGeneration.AspectRatio = DefaultImageAspectRatio
		}
		if r.ImageGeneration.Count == 0 {
			r.ImageGeneration.Count = 1
		}
	}
}

// Validate ensures the request satisfies the contract before dispatch.
func (r ArticleRequest) Validate() error {
	if strings.TrimSpace(r.Prompt.Description) == "" {
		return fmt.Errorf("prompt.description is required")
	}
	if strings.TrimSpace(r.Article.Language) == "" {
		return fmt.Errorf("article.language is required")
	}
	if _, err := language.Parse(r.Article.Language); err != nil {
		return fmt.Errorf("article.language %q is not a valid language tag", r.Article.Language)
	}
	if strings.TrimSpace(r.Article.Tone) == "" {
		return fmt.Errorf("article.tone is required")
	}
	if strings.TrimSpace(r.Article.TargetAudience) == "" {
		return fmt.Errorf("article.targetAudience is required")
	}
	if r.Article.Length != "" {
		if _, ok := allowedLengths[r.Article.Length]; !ok {
			return fmt.Errorf("article.length must be one of short, medium, long")
		}
	}
	if r.Article.Format != "" {
		if _, ok := allowedFormats[r.Article.Format]; !ok {
			return fmt.Errorf("article.format must be one of markdown, html, plain")
		}
	}
	if r.References.Texts == nil || r.References.Images == nil {
		return fmt.Errorf("references.texts and references.images must be lists")
	}
	for i, ref := range r.References.Texts {
		if strings.TrimSpace(ref.Content) == "" {
			return fmt.Errorf("references.texts[%d].content is required", i)
		}
	}
	for i, ref := range r.References.Images {
		if strings.TrimSpace(ref.ID) == "" {
			return fmt.Errorf("references.images[%d].id is required", i)
		}
		if !strings.HasPrefix(ref.MimeType, "image/") {
			return fmt.Errorf("references.images[%d].mimeType must be an image type", i)
		}
		if !strings.HasPrefix(ref.DataURL, "data:") {
			return fmt.Errorf("references.images[%d].dataUrl must be a data URL", i)
		}
	}
	if r.ImageGeneration.Enabled {
		if r.ImageGeneration.Count < 1 || r.ImageGeneration.Count > MaxImageCount {
			return fmt.Errorf("imageGeneration.count must be between 1 and %d", MaxImageCount)
		}
		if _, ok := allowedAspectRatios[r.ImageGeneration.AspectRatio]; !ok {
			return fmt.Errorf("imageGeneration.aspectRatio must be one of 1:1, 4:3, 16:9")
		}
	}
	return nil
}

// ImageRequest asks for a standalone placeholder image.
type ImageRequest struct {
	Prompt                 string   `json:"prompt"`
	Style                  string   `json:"style"`
	AspectRatio            string   `json:"aspectRatio"`
	Count                  int      `json:"count"`
	Seed                   *int     `json:"seed,omitempty"`
	ReferenceImageDataURLs []string `json:"referenceImageDataUrls,omitempty"`
}

// Validate mirrors the minimal contract of the image endpoint.
func (r ImageRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("prompt is required")
	}
	if r.Count <= 0 {
		return fmt.Errorf("count must be a positive number")
	}
	return nil
}
