package translate

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/local/pdftranslate/internal/apperr"
)

type BaiduClient struct{}

func (c *BaiduClient) Name() string { return "baidu" }

type baiduResponse struct {
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
	Result    []struct {
		Dst string `json:"dst"`
	} `json:"trans_result"`
}

// Sign computes Baidu's keyed request signature:
// md5(appid + text + salt + secret), hex-encoded.
func (c *BaiduClient) Sign(appID, text, salt, secret string) string {
	sum := md5.Sum([]byte(appID + text + salt + secret))
	return hex.EncodeToString(sum[:])
}

func (c *BaiduClient) Translate(ctx context.Context, req Request) (string, error) {
	salt := strconv.FormatInt(time.Now().UnixMilli(), 10)
	params := url.Values{
		"q":     {req.Text},
		"from":  {"auto"},
		"to":    {codeFor(baiduCodes, req.TargetLanguage, "en")},
		"appid": {req.AppID},
		"salt":  {salt},
		"sign":  {c.Sign(req.AppID, req.Text, salt, req.AppSecret)},
	}
	endpoint := "https://api.fanyi.baidu.com/api/trans/vip/translate?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return "", &apperr.UpstreamError{Source: c.Name(), Body: redact(err.Error(), req.AppSecret)}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &apperr.UpstreamError{Source: c.Name(), StatusCode: resp.StatusCode, Body: excerpt(raw, req.AppSecret)}
	}
	var r baiduResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", &apperr.UpstreamError{Source: c.Name(), Body: "unparsable response: " + excerpt(raw, req.AppSecret)}
	}
	if r.ErrorCode != "" && r.ErrorCode != "0" {
		return "", &apperr.UpstreamError{Source: c.Name(), Body: fmt.Sprintf("error %s: %s", r.ErrorCode, r.ErrorMsg)}
	}
	if len(r.Result) == 0 {
		return "", &apperr.UpstreamError{Source: c.Name(), Body: "empty trans_result"}
	}
	parts := make([]string, 0, len(r.Result))
	for _, item := range r.Result {
		parts = append(parts, item.Dst)
	}
	return strings.Join(parts, "\n"), nil
}
