package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/postal-parser/app/responses"
	"github.com/postal-parser/internal/locale"
)

// LocaleController tra cứu quốc gia và bang/tỉnh
type LocaleController struct {
	table     *locale.Table
	suggester *locale.Suggester
	limit     int
	logger    *zap.Logger
}

// NewLocaleController tạo mới LocaleController
func NewLocaleController(table *locale.Table, suggester *locale.Suggester, limit int, logger *zap.Logger) *LocaleController {
	if limit <= 0 {
		limit = 5
	}
	return &LocaleController{table: table, suggester: suggester, limit: limit, logger: logger}
}

func (lc *LocaleController) country(c *gin.Context) (locale.Country, bool) {
	code := locale.Country(strings.ToUpper(c.Param("code")))
	if !lc.table.Known(code) {
		// names and alpha-3 codes are accepted too
		if resolved, ok := lc.table.LookupCountry(c.Param("code")); ok {
			return resolved, true
		}
		errorJSON(c, http.StatusNotFound, "COUNTRY_NOT_FOUND", "Không tìm thấy quốc gia: "+c.Param("code"), nil)
		return "", false
	}
	return code, true
}

// GetCountry thông tin một quốc gia
func (lc *LocaleController) GetCountry(c *gin.Context) {
	code, ok := lc.country(c)
	if !ok {
		return
	}

	currency, _ := lc.table.Currency(code)
	c.JSON(http.StatusOK, responses.CountryResponse{
		Code:     string(code),
		Alpha3:   lc.table.Alpha3(code),
		Name:     lc.table.CountryName(code),
		Currency: currency,
		States:   len(lc.table.States(code)),
	})
}

// GetStates danh sách bang/tỉnh; với ?q= trả về gợi ý gần đúng
func (lc *LocaleController) GetStates(c *gin.Context) {
	code, ok := lc.country(c)
	if !ok {
		return
	}

	resp := responses.StatesResponse{Country: string(code), Query: c.Query("q")}
	if resp.Query == "" {
		resp.States = lc.table.States(code)
		c.JSON(http.StatusOK, resp)
		return
	}

	limit := lc.limit
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}

	if canonical, exact := lc.table.State(code, resp.Query); exact {
		resp.States = []string{canonical}
	}
	resp.Suggestions = lc.suggester.Suggest(code, resp.Query, limit)
	lc.logger.Debug("State suggestions",
		zap.String("country", string(code)),
		zap.String("query", resp.Query),
		zap.Int("suggestions", len(resp.Suggestions)))
	c.JSON(http.StatusOK, resp)
}
