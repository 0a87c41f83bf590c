package components

import "github.com/a-h/templ"

const script = `    <script>
        document.addEventListener('click', function (event) {
            const counterButton = event.target.closest('[data-templmd-counter] button[data-action]');
            if (counterButton) {
                const root = counterButton.closest('[data-templmd-counter]');
                const count = root.querySelector('[data-count]');
                const step = parseInt(root.dataset.step, 10) || 1;
                const delta = counterButton.dataset.action === 'increment' ? step : -step;
                count.textContent = String((parseInt(count.textContent, 10) || 0) + delta);
                return;
            }
            const tab = event.target.closest('[data-templmd-tabs] button[data-tab-index]');
            if (tab) {
                const root = tab.closest('[data-templmd-tabs]');
                const index = tab.dataset.tabIndex;
                root.querySelectorAll(':scope > [role=tablist] > button').forEach(function (b) {
                    const active = b.dataset.tabIndex === index;
                    b.setAttribute('aria-selected', String(active));
                    b.classList.toggle('bg-white', active);
                    b.classList.toggle('border-b-2', active);
                    b.classList.toggle('border-blue-600', active);
                    b.classList.toggle('text-blue-600', active);
                    b.classList.toggle('text-gray-600', !active);
                });
                root.querySelectorAll(':scope > div > [data-tab-panel]').forEach(function (p) {
                    p.hidden = p.dataset.tabPanel !== index;
                });
            }
        });
    </script>
`

// Script returns the page script that makes counters and tabs interactive.
// Pages without it still show every component, only without interaction.
func Script() templ.Component {
	return templ.Raw(script)
}
