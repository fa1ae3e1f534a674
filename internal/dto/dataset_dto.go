package dto

import "time"

type UploadDatasetResponse struct {
	Url        string `json:"url"`
	ObjectName string `json:"objectName"`
}

type FetchDatasetRequest struct {
	Url string `json:"url" validate:"required,url"`
}

type FetchDatasetResponse struct {
	Content     string    `json:"content"`
	ContentType string    `json:"contentType"`
	FileName    string    `json:"fileName"`
	Size        int64     `json:"size"`
	Updated     time.Time `json:"updated"`
}
