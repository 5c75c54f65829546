package faceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
)

// CaptureFileName is the file name sent with every face upload.
const CaptureFileName = "capture.jpg"

// UploadFace posts one encoded frame as multipart field "file" to endpoint
// (PathFaceRegister or PathFaceVerify) and parses the JSON result.
func (c *Client) UploadFace(ctx context.Context, endpoint string, frame []byte) (*FaceResult, error) {
	if len(frame) == 0 {
		return nil, errors.New("empty frame")
	}

	// Create multipart form
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", CaptureFileName)
	if err != nil {
		return nil, fmt.Errorf("could not create form file: %w", err)
	}
	if _, err := part.Write(frame); err != nil {
		return nil, fmt.Errorf("could not write frame data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not close writer: %w", err)
	}

	respBody, err := c.do(ctx, request{
		operation:   "face_upload",
		endpoint:    endpoint,
		auth:        true,
		body:        &body,
		contentType: writer.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}

	var result FaceResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal face result: %w", err)
	}
	result.Raw = compactJSON(respBody)
	return &result, nil
}

// RegisterFace stores the frame as the user's reference face.
func (c *Client) RegisterFace(ctx context.Context, frame []byte) (*FaceResult, error) {
	return c.UploadFace(ctx, PathFaceRegister, frame)
}

// VerifyFace compares the frame with the registered face.
func (c *Client) VerifyFace(ctx context.Context, frame []byte) (*FaceResult, error) {
	return c.UploadFace(ctx, PathFaceVerify, frame)
}
