package http

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"student-records/internal/service"
)

const (
	pictureField       = "profile_pic"
	maxUploadBody      = service.MaxPictureSize + 1<<20
	multipartMaxMemory = 8 << 20
)

const (
	msgFileTooLarge     = "File too large. Maximum size allowed is 3MB."
	msgUnexpectedFile   = "Too many files uploaded or unexpected field name."
	msgUploadFailed     = "File upload failed."
	msgInvalidStudentID = "Invalid student ID format."
)

func (h *Handler) listStudents(c *gin.Context) {
	students, err := h.students.List(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, "list students", err)
		return
	}
	if len(students) == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "No students found in the database.",
			"data":    []StudentResponse{},
		})
		return
	}

	resp := make([]StudentResponse, len(students))
	for i := range students {
		resp[i] = h.studentToResponse(c, &students[i])
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(resp),
		"message": "Students fetched successfully.",
		"data":    resp,
	})
}

func (h *Handler) getStudent(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}

	student, err := h.students.Get(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, "get student", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Student fetched successfully.",
		"data":    h.studentToResponse(c, student),
	})
}

func (h *Handler) createStudent(c *gin.Context) {
	in, closeFile, ok := readStudentForm(c)
	if !ok {
		return
	}
	defer closeFile()

	student, err := h.students.Create(c.Request.Context(), in)
	if err != nil {
		h.writeServiceError(c, "create student", err)
		return
	}

	h.auditLog(c, student.ID).Info("student created")
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "New student added successfully.",
		"data":    h.studentToResponse(c, student),
	})
}

func (h *Handler) updateStudent(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}
	in, closeFile, ok := readStudentForm(c)
	if !ok {
		return
	}
	defer closeFile()

	student, err := h.students.Update(c.Request.Context(), id, in)
	if err != nil {
		h.writeServiceError(c, "update student", err)
		return
	}

	h.auditLog(c, student.ID).Info("student updated")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Student updated successfully.",
		"data":    h.studentToResponse(c, student),
	})
}

func (h *Handler) deleteStudent(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}

	student, err := h.students.Delete(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, "delete student", err)
		return
	}

	h.auditLog(c, student.ID).Info("student deleted")
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   fmt.Sprintf("Student '%s %s' deleted successfully.", student.FirstName, student.LastName),
		"deletedId": student.ID,
	})
}

func (h *Handler) auditLog(c *gin.Context, studentID int64) *logrus.Entry {
	fields := logrus.Fields{
		"request_id": c.GetString(requestIDKey),
		"student_id": studentID,
	}
	if claims, ok := Claims(c); ok {
		fields["user_id"] = claims.ID
	}
	return h.logger.WithFields(fields)
}

func studentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, msgInvalidStudentID)
		return 0, false
	}
	return id, true
}

// readStudentForm reads the student fields and an optional profile picture.
// The returned func closes the uploaded file and must always be called when
// ok is true.
func readStudentForm(c *gin.Context) (service.StudentInput, func(), bool) {
	noop := func() {}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.Request.ParseMultipartForm(multipartMaxMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				badRequest(c, msgFileTooLarge)
			} else {
				badRequest(c, msgUploadFailed)
			}
			return service.StudentInput{}, noop, false
		}
	} else if err := c.Request.ParseForm(); err != nil {
		badRequest(c, "Invalid request body.")
		return service.StudentInput{}, noop, false
	}

	in := service.StudentInput{
		FirstName: c.Request.FormValue("first_name"),
		LastName:  c.Request.FormValue("last_name"),
		Email:     c.Request.FormValue("email"),
		Phone:     c.Request.FormValue("phone"),
		Gender:    c.Request.FormValue("gender"),
	}

	form := c.Request.MultipartForm
	if form == nil || len(form.File) == 0 {
		return in, noop, true
	}
	for field, files := range form.File {
		if field != pictureField || len(files) > 1 {
			badRequest(c, msgUnexpectedFile)
			return service.StudentInput{}, noop, false
		}
	}

	fh := form.File[pictureField][0]
	file, err := fh.Open()
	if err != nil {
		badRequest(c, msgUploadFailed)
		return service.StudentInput{}, noop, false
	}
	in.Picture = pictureFromHeader(fh, file)
	return in, func() { _ = file.Close() }, true
}

func pictureFromHeader(fh *multipart.FileHeader, file multipart.File) *service.Picture {
	return &service.Picture{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        file,
	}
}
