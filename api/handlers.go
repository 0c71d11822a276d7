package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reelvault/asset-services/constants"
	"github.com/reelvault/asset-services/models/common"
	"github.com/reelvault/asset-services/validation"
)

type trimRequest struct {
	End   *float64 `json:"end"`
	Start *float64 `json:"start"`
}

// maxExpiryHours is the longest expiry a time.Duration can hold.
var maxExpiryHours = math.Floor(float64(math.MaxInt64) / float64(time.Hour))

type shareRequest struct {
	ExpiryHours *float64 `json:"expiry_hours"`
}

type mergeRequest struct {
	VideoIDs any `json:"video_ids"`
}

func created(message string, id int64) gin.H {
	return gin.H{"message": message, "video_id": id}
}

func (s *Server) upload(c *gin.Context) {
	started := time.Now()
	header, err := c.FormFile("file")
	if err != nil {
		s.fail(c, constants.OpUpload, started, common.NewValidationError("Invalid file"))
		return
	}
	file, err := header.Open()
	if err != nil {
		s.fail(c, constants.OpUpload, started, common.NewProcessingError("Error reading upload", err))
		return
	}
	defer file.Close()
	id, err := s.Manager.Upload(c.Request.Context(), file, header.Filename)
	if err != nil {
		s.fail(c, constants.OpUpload, started, err)
		return
	}
	s.Metrics.Observe(constants.OpUpload, started, nil)
	c.JSON(http.StatusCreated, created("Video uploaded successfully", id))
}

func (s *Server) get(c *gin.Context) {
	started := time.Now()
	id, err := videoID(c)
	if err != nil {
		s.fail(c, constants.OpGet, started, err)
		return
	}
	view, err := s.Manager.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, constants.OpGet, started, err)
		return
	}
	s.Metrics.Observe(constants.OpGet, started, nil)
	c.JSON(http.StatusOK, view)
}

func (s *Server) trim(c *gin.Context) {
	started := time.Now()
	id, err := videoID(c)
	if err != nil {
		s.fail(c, constants.OpTrim, started, err)
		return
	}
	var req trimRequest
	if err := decodeJSON(c, &req); err != nil || req.Start == nil || req.End == nil {
		s.fail(c, constants.OpTrim, started, common.NewValidationError(
			"Invalid parameters : 'start' and 'end' are mandatory required fields"))
		return
	}
	newID, err := s.Manager.Trim(c.Request.Context(), id, *req.Start, *req.End)
	if err != nil {
		s.fail(c, constants.OpTrim, started, err)
		return
	}
	s.Metrics.Observe(constants.OpTrim, started, nil)
	c.JSON(http.StatusOK, created("Video trimmed successfully", newID))
}

func (s *Server) merge(c *gin.Context) {
	started := time.Now()
	var req mergeRequest
	if err := decodeJSON(c, &req); err != nil || req.VideoIDs == nil {
		s.fail(c, constants.OpMerge, started, common.NewValidationError(
			"Invalid parameters : 'video_ids' is a mandatory required field"))
		return
	}
	raw, _ := req.VideoIDs.([]any)
	ids, err := validation.ValidateIDSet(raw)
	if err != nil {
		s.fail(c, constants.OpMerge, started, err)
		return
	}
	newID, err := s.Manager.Merge(c.Request.Context(), ids)
	if err != nil {
		s.fail(c, constants.OpMerge, started, err)
		return
	}
	s.Metrics.Observe(constants.OpMerge, started, nil)
	c.JSON(http.StatusOK, created("Videos merged successfully", newID))
}

func (s *Server) share(c *gin.Context) {
	started := time.Now()
	id, err := videoID(c)
	if err != nil {
		s.fail(c, constants.OpGrant, started, err)
		return
	}
	var req shareRequest
	if err := decodeJSON(c, &req); err != nil {
		s.fail(c, constants.OpGrant, started, common.NewValidationError(
			"Invalid parameters : 'expiry_hours' must be a number"))
		return
	}
	var expiry *time.Duration
	if req.ExpiryHours != nil {
		if *req.ExpiryHours > maxExpiryHours {
			s.fail(c, constants.OpGrant, started, common.NewValidationError(
				fmt.Sprintf("Invalid parameters : 'expiry_hours' is too large (maximum %.0f)", maxExpiryHours)))
			return
		}
		d := time.Duration(*req.ExpiryHours * float64(time.Hour))
		expiry = &d
	}
	link, err := s.Shares.Grant(c.Request.Context(), id, expiry)
	if err != nil {
		s.fail(c, constants.OpGrant, started, err)
		return
	}
	s.Metrics.Observe(constants.OpGrant, started, nil)
	c.JSON(http.StatusOK, link)
}

func (s *Server) redeem(c *gin.Context) {
	started := time.Now()
	view, err := s.Shares.Redeem(c.Request.Context(), c.Param("token"))
	if err != nil {
		s.fail(c, constants.OpRedeem, started, err)
		return
	}
	s.Metrics.Observe(constants.OpRedeem, started, nil)
	c.JSON(http.StatusOK, view)
}

func (s *Server) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail records the failed operation and writes {"error": message}
// with the status for the error's kind.
func (s *Server) fail(c *gin.Context, operation string, started time.Time, err error) {
	s.Metrics.Observe(operation, started, err)
	status := StatusFor(err)
	var detailed common.DetailedError
	if status >= http.StatusInternalServerError && errors.As(err, &detailed) {
		s.Context.Logger.Error(detailed.Detail())
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusFor maps an error's kind to an HTTP status.
func StatusFor(err error) int {
	switch common.KindOf(err) {
	case common.KindValidation:
		return http.StatusBadRequest
	case common.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func videoID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, common.NewValidationError("Invalid parameters : video id must be an integer")
	}
	return id, nil
}

// decodeJSON reads the request body into v, keeping numbers exact.
// An empty body leaves v untouched.
func decodeJSON(c *gin.Context, v any) error {
	decoder := json.NewDecoder(c.Request.Body)
	decoder.UseNumber()
	err := decoder.Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
