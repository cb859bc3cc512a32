package api

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

const defaultPageSize = 6

type pageParams struct {
	Page  int
	Limit int
}

func (p pageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// getPageParams reads ?page= and ?limit= with sane defaults.
func getPageParams(c *gin.Context) pageParams {
	params := pageParams{Page: 1, Limit: defaultPageSize}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		params.Page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		params.Limit = v
	}
	return params
}

type pageResponse struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

func pageURL(c *gin.Context, page int) *string {
	u := *c.Request.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

// paginate wraps results in the {count, next, previous, results} shape.
func paginate(c *gin.Context, count int64, params pageParams, results interface{}) pageResponse {
	resp := pageResponse{Count: count, Results: results}
	if int64(params.Page*params.Limit) < count {
		resp.Next = pageURL(c, params.Page+1)
	}
	if params.Page > 1 {
		resp.Previous = pageURL(c, params.Page-1)
	}
	return resp
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", c.Param(name))
	}
	return uint(id), nil
}
