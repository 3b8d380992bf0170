package serverconf

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Templates holds the parsed configuration skeleton and the mime type table. They are built
// once by NewTemplates and only read afterward, so one instance can be shared by every
// Materializer.
type Templates struct {
	config    *template.Template
	mimeTypes string
}

// NewTemplates parses the built-in configuration skeleton.
func NewTemplates() (*Templates, error) {
	t, err := template.New("nginx.conf").Option("missingkey=error").Parse(configSkeleton)
	if err != nil {
		return nil, fmt.Errorf("parsing configuration skeleton: %w", err)
	}
	return &Templates{config: t, mimeTypes: mimeTypesTable}, nil
}

// MimeTypes returns the static mime type table.
func (t *Templates) MimeTypes() string {
	return t.mimeTypes
}

// Render produces the configuration file text. Optional directives whose value is Omitted
// produce no line at all.
func (t *Templates) Render(c Configuration) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.config.Execute(&buf, renderData{config: c}); err != nil {
		return "", fmt.Errorf("rendering configuration: %w", err)
	}
	return dropBlankLines(buf.String()), nil
}

type renderData struct {
	config Configuration
}

func (d renderData) Value(option string) string {
	return d.config.Text(Option(option))
}

func (d renderData) Directives(block string, indent int) string {
	pad := strings.Repeat(" ", indent)
	var lines []string
	for _, dir := range directives {
		if !dir.in(Block(block)) || d.config.IsOmitted(dir.Option) {
			continue
		}
		value := d.config.Text(dir.Option)
		if dir.Quoted {
			value = `"` + value + `"`
		}
		lines = append(lines, fmt.Sprintf("%s%s %s;", pad, dir.Name, value))
	}
	return strings.Join(lines, "\n")
}

func (d Directive) in(block Block) bool {
	for _, b := range d.Blocks {
		if b == block {
			return true
		}
	}
	return false
}

func dropBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n") + "\n"
}

const configSkeleton = `
pid                     logs/nginx.pid;
error_log               logs/nginx-main_error.log debug;
worker_processes        {{.Value "workers"}};
{{.Directives "main" 0}}

events {
    worker_connections  1024;
    use                 epoll;
}

http {
    include         mime.types;
    default_type    application/octet-stream;

    access_log      logs/nginx-http_access.log;
    error_log       logs/nginx-http_error.log debug;

    tcp_nopush                      on;
    tcp_nodelay                     on;
    keepalive_timeout               10;
    send_timeout                    10;
    client_body_timeout             10;
    client_header_timeout           10;
    sendfile                        on;
    client_header_buffer_size       1k;
    large_client_header_buffers     2 4k;
    ignore_invalid_headers          on;
    client_body_in_single_buffer    on;
{{.Directives "http" 4}}

    server {
        listen          {{.Value "port"}};
        server_name     {{.Value "host"}};

        location /channels_stats {
            push_stream_channels_statistics;
            set $push_stream_channel_id             $arg_id;
        }

        location /pub {
            push_stream_publisher;
            set $push_stream_channel_id             $arg_id;
{{.Directives "publish" 12}}
        }

        location ~ /sub/(.*)? {
            push_stream_subscriber;
            set $push_stream_channels_path          $1;
{{.Directives "subscribe" 12}}
            chunked_transfer_encoding               off;
        }
    }
}
`

const mimeTypesTable = `
types {
    text/html                             html htm shtml;
    text/css                              css;
    text/xml                              xml;
    image/gif                             gif;
    image/jpeg                            jpeg jpg;
    application/x-javascript              js;
    application/atom+xml                  atom;
    application/rss+xml                   rss;

    text/mathml                           mml;
    text/plain                            txt;
    text/vnd.sun.j2me.app-descriptor      jad;
    text/vnd.wap.wml                      wml;
    text/x-component                      htc;

    image/png                             png;
    image/tiff                            tif tiff;
    image/vnd.wap.wbmp                    wbmp;
    image/x-icon                          ico;
    image/x-jng                           jng;
    image/x-ms-bmp                        bmp;
    image/svg+xml                         svg;

    application/java-archive              jar war ear;
    application/mac-binhex40              hqx;
    application/msword                    doc;
    application/pdf                       pdf;
    application/postscript                ps eps ai;
    application/rtf                       rtf;
    application/vnd.ms-excel              xls;
    application/vnd.ms-powerpoint         ppt;
    application/vnd.wap.wmlc              wmlc;
    application/vnd.wap.xhtml+xml         xhtml;
    application/vnd.google-earth.kml+xml  kml;
    application/vnd.google-earth.kmz      kmz;
    application/x-cocoa                   cco;
    application/x-java-archive-diff       jardiff;
    application/x-java-jnlp-file          jnlp;
    application/x-makeself                run;
    application/x-perl                    pl pm;
    application/x-pilot                   prc pdb;
    application/x-rar-compressed          rar;
    application/x-redhat-package-manager  rpm;
    application/x-sea                     sea;
    application/x-shockwave-flash         swf;
    application/x-stuffit                 sit;
    application/x-tcl                     tcl tk;
    application/x-x509-ca-cert            der pem crt;
    application/x-xpinstall               xpi;
    application/zip                       zip;

    application/octet-stream              bin exe dll;
    application/octet-stream              deb;
    application/octet-stream              dmg;
    application/octet-stream              eot;
    application/octet-stream              iso img;
    application/octet-stream              msi msp msm;

    audio/midi                            mid midi kar;
    audio/mpeg                            mp3;
    audio/x-realaudio                     ra;

    video/3gpp                            3gpp 3gp;
    video/mpeg                            mpeg mpg;
    video/quicktime                       mov;
    video/x-flv                           flv;
    video/x-mng                           mng;
    video/x-ms-asf                        asx asf;
    video/x-ms-wmv                        wmv;
    video/x-msvideo                       avi;
}
`
