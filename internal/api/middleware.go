package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

func isWhitelisted(path string, whitelistedRoutes []string) bool {
	for _, route := range whitelistedRoutes {
		if path == route {
			return true
		}
	}
	return false
}

// ZstdMiddleware decompresses zstd request bodies and compresses responses for
// clients that accept zstd.
func ZstdMiddleware(whitelistedRoutes []string) fiber.Handler {
	if whitelistedRoutes == nil {
		whitelistedRoutes = []string{"/health"}
	}

	return func(c *fiber.Ctx) error {
		if isWhitelisted(c.Path(), whitelistedRoutes) {
			return c.Next()
		}

		if strings.ToLower(c.Get(fiber.HeaderContentEncoding)) == "zstd" {
			body := c.Body()
			if len(body) > 0 {
				decoder, err := zstd.NewReader(bytes.NewReader(body))
				if err != nil {
					log.Err(err).Msg("Failed to create zstd decoder")
					return c.Status(fiber.StatusBadRequest).JSON(
						createResponse(map[string]interface{}{}, fmt.Errorf("failed to decompress zstd data")))
				}
				defer decoder.Close()

				decompressed, err := io.ReadAll(decoder)
				if err != nil {
					log.Err(err).Msg("Failed to decompress request")
					return c.Status(fiber.StatusBadRequest).JSON(
						createResponse(map[string]interface{}{}, fmt.Errorf("failed to decompress zstd data")))
				}

				c.Request().SetBody(decompressed)
				c.Request().Header.Del(fiber.HeaderContentEncoding)
				log.Debug().Msg("Request body decompressed")
			}
		}

		if err := c.Next(); err != nil {
			return err
		}

		if strings.Contains(strings.ToLower(c.Get(fiber.HeaderAcceptEncoding)), "zstd") {
			responseBody := c.Response().Body()
			if len(responseBody) > 0 {
				encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
				if err != nil {
					log.Err(err).Msg("Failed to create zstd encoder")
					return nil
				}
				defer encoder.Close()

				compressed := encoder.EncodeAll(responseBody, nil)
				c.Response().SetBody(compressed)
				c.Set(fiber.HeaderContentEncoding, "zstd")
				c.Set(fiber.HeaderVary, fiber.HeaderAcceptEncoding)

				log.Debug().
					Int("original_size", len(responseBody)).
					Int("compressed_size", len(compressed)).
					Msg("Response body compressed")
			}
		}

		return nil
	}
}

// RequesterMiddleware requires the x-user-id header on every non-whitelisted
// route and stores the parsed requester in the request locals.
func RequesterMiddleware(whitelistedRoutes []string) fiber.Handler {
	if whitelistedRoutes == nil {
		whitelistedRoutes = []string{"/health"}
	}

	return func(c *fiber.Ctx) error {
		if isWhitelisted(c.Path(), whitelistedRoutes) {
			return c.Next()
		}

		req := requesterFromHeaders(c)
		if req.UserID == "" {
			errMsg := fmt.Sprintf("%s, missing header: %s", http.StatusText(http.StatusUnauthorized), UserIDHeader)
			return c.Status(fiber.StatusUnauthorized).JSON(
				createResponse(map[string]interface{}{}, fmt.Errorf("%s", errMsg)))
		}

		c.Locals(requesterLocal, req)
		return c.Next()
	}
}
