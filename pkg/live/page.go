package live

import (
	"html"
	"strings"
)

// RootID is the id of the element whose content is replaced on update
const RootID = "htag-root"

// Page returns a preview document for one fixture. The page connects to
// liveURL and swaps in the HTML and CSS of every update frame it receives.
func Page(title, body, css, liveURL string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title>\n<style id=\"htag-style\">")
	b.WriteString(css)
	b.WriteString("</style>\n</head>\n<body>\n<div id=\"")
	b.WriteString(RootID)
	b.WriteString("\">")
	b.WriteString(body)
	b.WriteString("</div>\n<pre id=\"htag-error\" hidden></pre>\n<script>\n")
	b.WriteString(strings.ReplaceAll(clientScript, "{{URL}}", strings.ReplaceAll(liveURL, `"`, `\"`)))
	b.WriteString("</script>\n</body>\n</html>\n")
	return b.String()
}

// clientScript decodes update and error frames; see EncodeUpdate
const clientScript = `(function () {
  var dec = new TextDecoder();
  function reader(buf) {
    var pos = 1;
    function uvarint() {
      var x = 0, s = 1, b;
      do { b = buf[pos++]; x += (b & 0x7f) * s; s *= 128; } while (b & 0x80);
      return x;
    }
    function str() {
      var n = uvarint(), v = dec.decode(buf.subarray(pos, pos + n));
      pos += n;
      return v;
    }
    return { uvarint: uvarint, str: str };
  }
  function connect() {
    var url = new URL("{{URL}}", location.href);
    url.protocol = url.protocol === "https:" ? "wss:" : "ws:";
    var ws = new WebSocket(url);
    ws.binaryType = "arraybuffer";
    ws.onmessage = function (ev) {
      var buf = new Uint8Array(ev.data), r = reader(buf), err = document.getElementById("htag-error");
      if (buf[0] === 0x00) {
        r.uvarint(); r.str();
        document.getElementById("` + RootID + `").innerHTML = r.str();
        document.getElementById("htag-style").textContent = r.str();
        err.hidden = true;
      } else if (buf[0] === 0x01) {
        r.uvarint(); r.str();
        err.textContent = r.str();
        err.hidden = false;
      }
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  connect();
})();
`
