package analyzer

import (
	"github.com/go-rod/rod"
	"github.com/trackscan/trackscan/models"
	"github.com/ysmood/gson"
)

// fingerprintJS is installed before navigation and patches the three browser
// APIs commonly used to derive a device fingerprint. Any invocation during
// page execution flips the matching flag on a page-global object, which the
// host reads back after navigation. The patches delegate to the original
// implementations, so instrumented pages behave normally.
//
// Only calls through these exact entry points are observed. Fingerprinting
// via offscreen canvas or font measurement goes unseen, which is why the
// record's fonts flag has no observer at all.
const fingerprintJS = `(() => {
	window.__fpSignals = { canvas: false, webgl: false, audio: false };

	const origToDataURL = HTMLCanvasElement.prototype.toDataURL;
	HTMLCanvasElement.prototype.toDataURL = function (...args) {
		window.__fpSignals.canvas = true;
		return origToDataURL.apply(this, args);
	};

	const patchGetParameter = (proto) => {
		if (!proto) return;
		const orig = proto.getParameter;
		proto.getParameter = function (...args) {
			window.__fpSignals.webgl = true;
			return orig.apply(this, args);
		};
	};
	patchGetParameter(window.WebGLRenderingContext && WebGLRenderingContext.prototype);
	patchGetParameter(window.WebGL2RenderingContext && WebGL2RenderingContext.prototype);

	const patchCreateOscillator = (ctor) => {
		if (!ctor || !ctor.prototype) return;
		const orig = ctor.prototype.createOscillator;
		ctor.prototype.createOscillator = function (...args) {
			window.__fpSignals.audio = true;
			return orig.apply(this, args);
		};
	};
	patchCreateOscillator(window.AudioContext || window.webkitAudioContext);
	patchCreateOscillator(window.OfflineAudioContext);
})();`

// readFingerprintFlags pulls the instrumentation flags out of the page.
// A page that somehow cleared the global reads as all false rather than
// failing the session.
func readFingerprintFlags(p *rod.Page) (models.FingerprintFlags, error) {
	res, err := p.Eval(`() => window.__fpSignals || { canvas: false, webgl: false, audio: false }`)
	if err != nil {
		return models.FingerprintFlags{}, err
	}
	return models.FingerprintFlags{
		Canvas: res.Value.Get("canvas").Bool(),
		WebGL:  res.Value.Get("webgl").Bool(),
		Audio:  res.Value.Get("audio").Bool(),
	}, nil
}

// readLocalStorage snapshots every key/value pair in the page's localStorage.
func readLocalStorage(p *rod.Page) (map[string]string, error) {
	res, err := p.Eval(`() => {
		const out = {};
		for (let i = 0; i < localStorage.length; i++) {
			const k = localStorage.key(i);
			out[k] = localStorage.getItem(k);
		}
		return out;
	}`)
	if err != nil {
		return nil, err
	}
	return stringMap(res.Value.Map()), nil
}

// stringMap flattens a gson object into plain string pairs.
func stringMap(raw map[string]gson.JSON) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = v.Str()
	}
	return out
}

// detectWalletProvider reports whether the page exposes the de-facto
// standard injected wallet provider global.
func detectWalletProvider(p *rod.Page) (bool, error) {
	res, err := p.Eval(`() => typeof window.ethereum !== 'undefined'`)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}
