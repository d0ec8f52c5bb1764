package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

var badPaths = []string{
	".env", "php", "mysql", "cgi-bin", "wp-login.php", "wp-admin",
	"xmlrpc.php", "config.php", "passwd", "shadow", "bin/bash", "bin/sh",
	"cmd.exe", "shell", "actuator", "manager/html", "web-console", "login.do",
	"powershell", "favicon.ico", "geoserver", "luci", "tomcat",
}

func BlockBadActorsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestPath := c.Request.URL.Path

		for _, path := range badPaths {
			if strings.Contains(requestPath, path) {
				c.JSON(403, gin.H{"error": "Forbidden"})
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
