package vulkan

import (
	"encoding/binary"
	"fmt"
	"strings"

	vk "github.com/goki/vulkan"

	"github.com/kaelos/prism/engine/renderer/driver"
)

// safeString null-terminates s for the C side.
func safeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}

// safeStringTrim strips the null padding of fixed-size C char arrays.
func safeStringTrim(s string) string {
	if idx := strings.IndexByte(s, 0); idx >= 0 {
		return s[:idx]
	}
	return s
}

func resultString(res vk.Result) string {
	if err := vk.Error(res); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("result %d", int32(res))
}

func toVkFormat(f driver.Format) vk.Format {
	switch f {
	case driver.FormatB8G8R8A8Unorm:
		return vk.FormatB8g8r8a8Unorm
	case driver.FormatB8G8R8A8Srgb:
		return vk.FormatB8g8r8a8Srgb
	case driver.FormatR8G8B8A8Unorm:
		return vk.FormatR8g8b8a8Unorm
	default:
		return vk.FormatUndefined
	}
}

func fromVkFormat(f vk.Format) driver.Format {
	switch f {
	case vk.FormatB8g8r8a8Unorm:
		return driver.FormatB8G8R8A8Unorm
	case vk.FormatB8g8r8a8Srgb:
		return driver.FormatB8G8R8A8Srgb
	case vk.FormatR8g8b8a8Unorm:
		return driver.FormatR8G8B8A8Unorm
	default:
		return driver.FormatUndefined
	}
}

func toVkPresentMode(m driver.PresentMode) vk.PresentMode {
	switch m {
	case driver.PresentModeMailbox:
		return vk.PresentModeMailbox
	case driver.PresentModeImmediate:
		return vk.PresentModeImmediate
	default:
		return vk.PresentModeFifo
	}
}

// attributeFormat maps a float component count to the matching vertex
// input format.
func attributeFormat(components uint32) vk.Format {
	switch components {
	case 2:
		return vk.FormatR32g32Sfloat
	case 3:
		return vk.FormatR32g32b32Sfloat
	case 4:
		return vk.FormatR32g32b32a32Sfloat
	default:
		return vk.FormatUndefined
	}
}

// repackUint32 converts SPIR-V bytes to the uint32 words Vulkan expects.
func repackUint32(data []byte) []uint32 {
	out := make([]uint32, len(data)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return out
}
