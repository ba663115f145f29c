package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-flight-tracker/internal/importer"
)

// UploadFlights godoc
// @ID          uploadFlights
// @Summary     Import flights from a spreadsheet
// @Description Accepts a CSV or XLSX file with employee_name, flight_number and departure_time columns (origin and destination optional). Valid rows are created; invalid rows are reported by line number.
// @Tags        Flights
// @Accept      multipart/form-data
// @Produce     json
// @Param       file  formData  file  true  "CSV or XLSX spreadsheet"
// @Success     200  {object} handlers.Envelope{data=handlers.UploadResult}
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     413  {object} handlers.ErrorResponse
// @Failure     415  {object} handlers.ErrorResponse
// @Router      /flights/upload [post]
func (h *Handlers) UploadFlights(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	fh, err := c.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) || c.Request.ContentLength > h.maxUpload {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "upload exceeds size limit")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "multipart field \"file\" is required")
		return
	}
	if fh.Size > h.maxUpload {
		fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "upload exceeds size limit")
		return
	}

	f, err := fh.Open()
	if err != nil {
		failErr(c, err)
		return
	}
	defer f.Close()

	rows, err := importer.Parse(fh.Filename, f)
	if err != nil {
		failErr(c, err)
		return
	}

	res, err := h.svc.Import(c.Request.Context(), rows)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, UploadResult{
		ImportedCount: len(res.Imported),
		ErrorCount:    len(res.Errors),
		Imported:      res.Imported,
		Errors:        res.Errors,
	})
}

// DownloadTemplate godoc
// @ID          downloadTemplate
// @Summary     Spreadsheet import template
// @Tags        Flights
// @Produce     text/csv
// @Success     200  {file} file
// @Router      /flights/template [get]
func (h *Handlers) DownloadTemplate(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="flights_template.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", importer.Template())
}
