package video

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/edulearn/core"
)

// Video source kinds
const (
	TypeYouTube  = "youtube"
	TypeUploaded = "uploaded"
)

var (
	videoTypeTag  = "videotype"
	videoTypeText = "video type must be youtube or uploaded"

	uploadPathTag  = "uploadpath"
	uploadPathText = "a storage path is required for uploaded videos"
)

func init() {
	_ = core.Validate.RegisterValidation(videoTypeTag, videoTypeValidation)
	core.RegisterCustomTranslation(videoTypeTag, videoTypeText)

	core.Validate.RegisterStructValidation(newVideoStructValidation, NewVideo{})
	core.RegisterCustomTranslation(uploadPathTag, uploadPathText)
}

type Video struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Subject     string    `json:"subject"`
	VideoURL    string    `json:"video_url"`
	VideoType   string    `json:"video_type"`
	StoragePath string    `json:"storage_path,omitempty"` // set for uploaded files only
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewVideo contains information needed to publish a new Video.
type NewVideo struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Subject     string `json:"subject" validate:"required"`
	VideoURL    string `json:"video_url" validate:"required,url"`
	VideoType   string `json:"video_type" validate:"required,videotype"`
	StoragePath string `json:"storage_path"`
}

func (nv *NewVideo) Validate() error {
	nv.Title = core.CleanString(nv.Title)
	nv.Description = core.CleanString(nv.Description)
	nv.Subject = core.CleanString(nv.Subject)
	nv.VideoURL = core.CleanString(nv.VideoURL)
	nv.VideoType = core.CleanString(nv.VideoType, true /* lower */)
	nv.StoragePath = core.CleanString(nv.StoragePath)
	return core.Validate.Struct(nv)
}

// UpdateVideo defines what information may be provided to modify an existing Video.
// The source kind and storage path stay fixed after publication.
type UpdateVideo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	VideoURL    string `json:"video_url" validate:"omitempty,url"`
}

func (uv *UpdateVideo) Validate(origVid Video) error {
	if title := core.CleanString(uv.Title); title != "" {
		uv.Title = title
	} else {
		uv.Title = origVid.Title
	}
	if desc := core.CleanString(uv.Description); desc != "" {
		uv.Description = desc
	} else {
		uv.Description = origVid.Description
	}
	if subject := core.CleanString(uv.Subject); subject != "" {
		uv.Subject = subject
	} else {
		uv.Subject = origVid.Subject
	}
	if url := core.CleanString(uv.VideoURL); url != "" {
		uv.VideoURL = url
	} else {
		uv.VideoURL = origVid.VideoURL
	}
	return core.Validate.Struct(uv)
}

// QueryFilter narrows down video listings. Matching runs store-side.
type QueryFilter struct {
	Search     string `query:"search"`
	Subject    string `query:"subject"`
	UploadedBy string `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Subject == "" && qf.UploadedBy == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Subject = core.CleanString(qf.Subject)
}

// Custom Validators

func videoTypeValidation(fl validator.FieldLevel) bool {
	t := fl.Field().String()
	return t == TypeYouTube || t == TypeUploaded
}

// newVideoStructValidation requires a storage path for uploaded sources.
func newVideoStructValidation(sl validator.StructLevel) {
	if nv, ok := sl.Current().Interface().(NewVideo); ok {
		if nv.VideoType == TypeUploaded && nv.StoragePath == "" {
			sl.ReportError(nv.StoragePath, "storage_path", "StoragePath", uploadPathTag, "")
		}
	}
}
