package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/datatypes"

	"github.com/vnkhanh/topic-slides-backend/models"
)

var (
	slideNameAdjectives = []string{"New", "Cool", "Amazing", "Awesome", "Great", "Fantastic"}
	slideNameNouns      = []string{"Slide", "Page", "Content", "Section", "Part"}
)

// GenerateSlideName returns a random "<Adjective> <Noun>" label.
func GenerateSlideName() string {
	return slideNameAdjectives[rand.Intn(len(slideNameAdjectives))] + " " +
		slideNameNouns[rand.Intn(len(slideNameNouns))]
}

// DefaultSlideContent is the empty payload a new slide starts with.
func DefaultSlideContent(ct models.ContentType) datatypes.JSON {
	var v any
	if ct == models.ContentTypeQuiz {
		v = models.QuizBody{
			Question: "",
			Options:  []models.QuizOption{{}, {}},
		}
	} else {
		v = models.ContentBody{Text: ""}
	}
	data, _ := json.Marshal(v)
	return datatypes.JSON(data)
}

// CloneContent deep-copies a JSON payload.
func CloneContent(src datatypes.JSON) datatypes.JSON {
	if src == nil {
		return nil
	}
	return datatypes.JSON(bytes.Clone(src))
}

// Policy cho HTML từ trình soạn thảo rich-text
func newSlideHTMLPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowElements("p", "br", "hr")
	p.AllowElements("strong", "b", "em", "i", "u", "s", "mark", "sub", "sup")
	p.AllowElements("ul", "ol", "li")
	p.AllowElements("blockquote", "pre", "code")
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	p.AllowAttrs("src", "alt", "title").OnElements("img")
	p.AllowElements("table", "thead", "tbody", "tr", "th", "td")
	p.AllowAttrs("class").OnElements("div", "span", "p", "code", "pre")

	return p
}

var slideHTMLPolicy = newSlideHTMLPolicy()

// SanitizeSlideHTML strips anything the slide editor is not allowed to store.
func SanitizeSlideHTML(html string) string {
	return slideHTMLPolicy.Sanitize(html)
}

// NormalizeSlideContent validates raw against ct and returns the canonical
// payload to store. Content HTML is sanitized; quiz options must carry text.
func NormalizeSlideContent(ct models.ContentType, raw json.RawMessage) (datatypes.JSON, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}

	switch ct {
	case models.ContentTypeContent:
		var body models.ContentBody
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("%w: content must be {\"text\": string}: %v", ErrValidation, err)
		}
		body.Text = SanitizeSlideHTML(body.Text)
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		return datatypes.JSON(data), nil

	case models.ContentTypeQuiz:
		var body models.QuizBody
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("%w: quiz must be {\"question\": string, \"options\": []}: %v", ErrValidation, err)
		}
		body.Question = strings.TrimSpace(body.Question)
		if body.Options == nil {
			body.Options = []models.QuizOption{}
		}
		for i := range body.Options {
			body.Options[i].Text = strings.TrimSpace(body.Options[i].Text)
			if body.Options[i].Text == "" {
				return nil, fmt.Errorf("%w: quiz option %d is empty", ErrValidation, i+1)
			}
		}
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		return datatypes.JSON(data), nil
	}

	return nil, fmt.Errorf("%w: unknown content type %q", ErrValidation, ct)
}
