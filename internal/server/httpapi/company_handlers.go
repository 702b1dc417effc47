package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/bookkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *Server) listCompanies(c *gin.Context) {
	list, err := s.companies.List(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getCompany(c *gin.Context) {
	company, err := s.companies.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (s *Server) createCompany(c *gin.Context) {
	var in services.CompanyInput
	if !s.bind(c, &in) {
		return
	}
	company, err := s.companies.Create(c.Request.Context(), userID(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

func (s *Server) updateCompany(c *gin.Context) {
	var in services.CompanyInput
	if !s.bind(c, &in) {
		return
	}
	company, err := s.companies.Update(c.Request.Context(), userID(c), c.Param("id"), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (s *Server) deleteCompany(c *gin.Context) {
	if err := s.companies.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
