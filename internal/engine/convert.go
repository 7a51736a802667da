package engine

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/adobe/asset-compute-pipeline/internal/attribute"
	"github.com/adobe/asset-compute-pipeline/internal/errors"
	"github.com/adobe/asset-compute-pipeline/internal/metadataprobe"
	"github.com/adobe/asset-compute-pipeline/internal/transfer"
)

// dictToMap flattens a concrete attribute dict (as realized by
// planfinder's Best resolution) to the plain map[string]any shape
// transformers and working-directory bookkeeping deal in.
func dictToMap(d attribute.Dict) map[string]any {
	out := make(map[string]any, len(d))
	for name, expr := range d {
		switch expr.Kind {
		case attribute.KindValue:
			out[name] = expr.Value
		case attribute.KindList:
			out[name] = expr.List
		case attribute.KindRange:
			out[name] = map[string]float64{"min": expr.Range.Min, "max": expr.Range.Max}
		}
	}
	return out
}

func stringField(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func isHTTPSURL(raw string) bool {
	parsed, err := url.Parse(raw)
	return err == nil && parsed.Scheme == "https" && parsed.Host != ""
}

func isDataURL(raw string) bool {
	return strings.HasPrefix(raw, "data:")
}

// writeDataURL decodes a "data:[mediatype][;base64],<data>" URI to dest.
func writeDataURL(dataURL, dest string) error {
	rest := strings.TrimPrefix(dataURL, "data:")
	idx := strings.Index(rest, ",")
	if idx < 0 {
		return fmt.Errorf("malformed data URI: missing comma")
	}
	meta, payload := rest[:idx], rest[idx+1:]

	var decoded []byte
	var err error
	if strings.HasSuffix(meta, ";base64") {
		decoded, err = base64.StdEncoding.DecodeString(payload)
	} else {
		var unescaped string
		unescaped, err = url.QueryUnescape(payload)
		decoded = []byte(unescaped)
	}
	if err != nil {
		return fmt.Errorf("decoding data URI: %w", err)
	}
	return os.WriteFile(dest, decoded, 0o644)
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// filterUserData allow-lists userData to the configured field set;
// an empty allow-list admits nothing (spec.md §4.5).
func filterUserData(userData map[string]any, allowed []string) map[string]any {
	if len(allowed) == 0 || userData == nil {
		return nil
	}
	out := make(map[string]any, len(allowed))
	for _, k := range allowed {
		if v, ok := userData[k]; ok {
			out[k] = v
		}
	}
	return out
}

func declaredType(source attribute.Dict) string {
	expr, ok := source["type"]
	if !ok || expr.Kind != attribute.KindValue {
		return ""
	}
	s, _ := expr.Value.(string)
	return s
}

func mergeProbedMetadata(source attribute.Dict, md metadataprobe.Metadata) {
	if md.Width > 0 {
		source["width"] = attribute.NewValue(float64(md.Width))
	}
	if md.Height > 0 {
		source["height"] = attribute.NewValue(float64(md.Height))
	}
	if md.Orientation != "" {
		source["orientation"] = attribute.NewValue(md.Orientation)
	}
	if md.FileType != "" {
		source["fileType"] = attribute.NewValue(md.FileType)
	}
}

func errorReason(err error) string {
	return errors.Reason(err).Error()
}

// materializeForProbe resolves a local path for the metadata probe:
// it returns source's declared path if present, or downloads an
// https url once to the activation base directory (spec.md §4.5 step 1).
func (e *Engine) materializeForProbe(ctx context.Context, ec *engineContext, source attribute.Dict) (string, error) {
	if pathExpr, ok := source["path"]; ok && pathExpr.Kind == attribute.KindValue {
		if p, ok := pathExpr.Value.(string); ok {
			return p, nil
		}
	}

	urlExpr, ok := source["url"]
	if !ok || urlExpr.Kind != attribute.KindValue {
		return "", fmt.Errorf("no local path or url to probe")
	}
	raw, ok := urlExpr.Value.(string)
	if !ok || !isHTTPSURL(raw) {
		return "", fmt.Errorf("source url not downloadable for metadata probe")
	}
	if e.transfer == nil {
		return "", fmt.Errorf("no transfer adapter configured")
	}

	if err := os.MkdirAll(ec.baseDir, 0o755); err != nil {
		return "", err
	}
	localPath := ec.baseDir + "/probe-source"
	if err := e.transfer.Download(ctx, transfer.Asset{URL: raw, RetryOK: true}, localPath); err != nil {
		return "", err
	}
	ec.addCleanupPath(localPath)
	source["path"] = attribute.NewValue(localPath)
	return localPath, nil
}
