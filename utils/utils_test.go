package utils

import "testing"

func TestTokenURIFromSecrets(t *testing.T) {
	tests := []struct {
		secrets string
		want    string
	}{
		{
			secrets: "youtube-uploader-client-credentials.json",
			want:    "youtube-uploader-client-credentials.token.json",
		},
		{
			secrets: "/etc/ytupload/secrets.json",
			want:    "/etc/ytupload/secrets.token.json",
		},
		{
			secrets: "gs://ausocean/uploader.json",
			want:    "gs://ausocean/uploader.token.json",
		},
		{
			secrets: "secrets",
			want:    "secrets.token.json",
		},
		{
			secrets: "",
			want:    "",
		},
	}

	for i, test := range tests {
		got := TokenURIFromSecrets(test.secrets)
		if got != test.want {
			t.Errorf("did not get expected result for test %d, got: %s want: %s", i, got, test.want)
		}
	}
}
