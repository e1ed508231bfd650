// Copyright 2022 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package downloader

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const (
	// Hugging Face repository URL, in the format:
	// "https://huggingface.co/{repo_id}/resolve/{revision}/{filename}"
	huggingFaceCoPrefix = "https://huggingface.co/%s/resolve/%s/%s"
	// Default revision name for fetching files from a Hugging Face repository
	defaultRevision = "main"
)

// TokenizerFiles is the set of files a byte-level BPE tokenizer needs.
var TokenizerFiles = []string{"vocab.json", "merges.txt"}

// Download fetches the given files of a huggingface.co repository into
// destDir/repoName.
//
// If one or more directory levels don't yet exist, they are created
// setting the permissions bits to 0755 (rwxr-xr-x).
//
// By setting the flag overwriteIfExist to false, any file that already
// exists is kept and considered as already successfully downloaded. If
// the flag is otherwise set to true, existing files will be forcefully
// downloaded and overwritten.
func Download(destDir, repoName string, files []string, overwriteIfExist bool, accessToken string) error {
	return downloader{
		destPath:         filepath.Join(destDir, repoName),
		repoName:         repoName,
		files:            files,
		overwriteIfExist: overwriteIfExist,
		accessToken:      accessToken,
	}.download()
}

// downloader is a helper struct for downloading repository files.
type downloader struct {
	destPath         string
	repoName         string
	files            []string
	accessToken      string
	overwriteIfExist bool
}

func (d downloader) download() error {
	if err := d.ensureDestPath(); err != nil {
		return err
	}
	for _, filename := range d.files {
		if err := d.downloadFile(filename); err != nil {
			return err
		}
	}
	return nil
}

func (d downloader) ensureDestPath() error {
	if info, err := os.Stat(d.destPath); err == nil && info.IsDir() {
		return nil
	}
	if err := os.MkdirAll(d.destPath, 0755); err != nil {
		return fmt.Errorf("error creating destination path %#v: %w", d.destPath, err)
	}
	return nil
}

func (d downloader) downloadFile(name string) (err error) {
	fPath := filepath.Join(d.destPath, name)
	if info, err := os.Stat(fPath); !d.overwriteIfExist && err == nil && !info.IsDir() {
		log.Debug().Str("file", fPath).Msg("file already exists, skipping download")
		return nil
	}

	url := d.bucketURL(name)
	log.Debug().Str("url", url).Str("destination", fPath).Msg("downloading")

	f, err := os.Create(fPath)
	if err != nil {
		return fmt.Errorf("error creating file %#v: %w", fPath, err)
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = fmt.Errorf("error closing file %#v: %w", fPath, e)
		}
	}()

	resp, err := d.httpGet(url)
	if err != nil {
		return fmt.Errorf("error getting %#v: %w", url, err)
	}
	defer func() {
		if e := resp.Body.Close(); e != nil && err == nil {
			err = fmt.Errorf("error closing %#v response body: %w", url, e)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%#v responded with %s", url, resp.Status)
	}

	prog := &downloadProgress{total: resp.ContentLength, name: name}
	_, err = io.Copy(f, io.TeeReader(resp.Body, prog))
	if err != nil {
		return fmt.Errorf("error downloading %#v to %#v: %w", url, fPath, err)
	}
	return nil
}

func (d downloader) httpGet(url string) (*http.Response, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	if d.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+d.accessToken)
	}
	return http.DefaultClient.Do(req)
}

func (d downloader) bucketURL(fileName string) string {
	return fmt.Sprintf(huggingFaceCoPrefix, d.repoName, defaultRevision, fileName)
}

// downloadProgress reports the received byte count every reportEvery bytes.
type downloadProgress struct {
	name     string
	total    int64
	received int64
	lastLog  int64
}

const reportEvery = 10 << 20 // 10 MiB

func (p *downloadProgress) Write(b []byte) (int, error) {
	p.received += int64(len(b))
	if p.received-p.lastLog >= reportEvery || p.received == p.total {
		p.lastLog = p.received
		log.Debug().Str("file", p.name).Int64("received", p.received).Int64("total", p.total).Msg("download progress")
	}
	return len(b), nil
}
