// Package employees implements read-only HTTP handlers for the employee
// directory. Employee records are mastered elsewhere and synced into the
// database; this API only exposes them for custodian selection.
package employees

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/curiango/curiango/internal/db/models"
	"github.com/curiango/curiango/internal/db/repositories"
)

// Handlers handles employee endpoints
type Handlers struct {
	employees *repositories.EmployeeRepository
}

// NewHandlers creates a new Handlers instance
func NewHandlers(employees *repositories.EmployeeRepository) *Handlers {
	return &Handlers{employees: employees}
}

// @Summary      List employees
// @Description  Lists employees ordered by name, optionally filtered by status.
// @Tags         Employees
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Filter by status (active, terminated)"
// @Success      200  {object}  map[string]interface{}  "employees"
// @Router       /api/v1/employees [get]
// ListEmployeesHandler lists employees
// GET /api/v1/employees
func (h *Handlers) ListEmployeesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var status *string
		if v := c.Query("status"); v != "" {
			if v != models.EmployeeActive && v != models.EmployeeTerminated {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
				return
			}
			status = &v
		}

		list, err := h.employees.List(c.Request.Context(), status)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list employees"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"employees": list})
	}
}

// @Summary      Get an employee
// @Description  Retrieves an employee with their sector, if any.
// @Tags         Employees
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "Employee ID"
// @Success      200  {object}  map[string]interface{}  "employee, sector"
// @Failure      404  {object}  map[string]interface{}  "Employee not found"
// @Router       /api/v1/employees/{id} [get]
// GetEmployeeHandler retrieves one employee with their sector
// GET /api/v1/employees/:id
func (h *Handlers) GetEmployeeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employee id"})
			return
		}

		emp, sector, err := h.employees.GetWithSector(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, repositories.ErrEmployeeNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"employee": emp, "sector": sector})
	}
}
